package handler

import (
	"net/http"
	"strconv"

	"salonledger/internal/apierror"
	"salonledger/internal/dto"
	"salonledger/internal/middleware"
	"salonledger/internal/model"
	"salonledger/internal/repository"
	"salonledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterHandler struct{ svc service.CashRegisterService }

func NewRegisterHandler(svc service.CashRegisterService) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

// Open godoc
// @Summary Opens a cash register shift on an account
// @Tags registers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenRegisterRequest true "Opening data"
// @Success 201 {object} dto.RegisterResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/registers/open [post]
func (h *RegisterHandler) Open(c *gin.Context) {
	var req dto.OpenRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		respondError(c, apierror.ValidationFields(map[string]string{"account_id": "uuid"}))
		return
	}
	reg, err := h.svc.Open(c.Request.Context(), service.OpenRegisterInput{
		AccountID:      accountID,
		OpenedBy:       middleware.OperatorID(c),
		InitialBalance: req.InitialBalance,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRegisterResponse(reg))
}

// RecordAdjustment godoc
// @Summary Records a sangria or suprimento on an open register
// @Tags registers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Param body body dto.AdjustmentRequest true "Adjustment"
// @Success 201 {object} dto.AdjustmentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/registers/{id}/adjustments [post]
func (h *RegisterHandler) RecordAdjustment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	adj, err := h.svc.RecordAdjustment(c.Request.Context(), service.AdjustmentInput{
		RegisterID: id,
		Type:       model.AdjustmentType(req.Type),
		Amount:     req.Amount,
		Reason:     req.Reason,
		CreatedBy:  middleware.OperatorID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAdjustmentResponse(adj))
}

// Close godoc
// @Summary Closes a register against the counted breakdown
// @Tags registers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Param body body dto.CloseRegisterRequest true "Counted amounts per method"
// @Success 200 {object} dto.CloseRegisterResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/registers/{id}/close [post]
func (h *RegisterHandler) Close(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CloseRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Close(c.Request.Context(), service.CloseRegisterInput{
		RegisterID: id,
		ClosedBy:   middleware.OperatorID(c),
		Breakdown:  toBreakdown(req.Breakdown),
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCloseResponse(res))
}

// Current godoc
// @Summary Returns the open register, if any
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Param account_id query string false "Restrict to one account"
// @Param mine query bool false "Only registers opened by the caller"
// @Success 200 {object} dto.RegisterResponse
// @Success 204
// @Router /v1/registers/current [get]
func (h *RegisterHandler) Current(c *gin.Context) {
	var scope repository.RegisterScope
	if s := c.Query("account_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondError(c, apierror.ValidationFields(map[string]string{"account_id": "uuid"}))
			return
		}
		scope.AccountID = &id
	}
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		op := middleware.OperatorID(c)
		scope.OpenedBy = &op
	}

	reg, err := h.svc.GetCurrentOpen(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	if reg == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, toRegisterResponse(reg))
}

// History godoc
// @Summary Lists registers with aggregated closing figures
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD (inclusive)"
// @Param opened_by query string false "Operator ID"
// @Param status query string false "OPEN or CLOSED"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.RegisterHistoryResponse
// @Router /v1/registers/history [get]
func (h *RegisterHandler) History(c *gin.Context) {
	f, err := historyFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	hist, err := h.svc.GetHistory(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]dto.RegisterResponse, len(hist.Registers))
	for i := range hist.Registers {
		data[i] = toRegisterResponse(&hist.Registers[i])
	}
	st := hist.Stats
	c.JSON(http.StatusOK, dto.RegisterHistoryResponse{
		Data:  data,
		Total: hist.Total,
		Page:  hist.Page,
		Limit: hist.Limit,
		Stats: dto.RegisterStatsResponse{
			Count:                st.Count,
			TotalInitialBalance:  st.TotalInitialBalance,
			TotalExpectedBalance: st.TotalExpectedBalance,
			TotalActualBalance:   st.TotalActualBalance,
			TotalSurplus:         st.TotalSurplus,
			TotalShortage:        st.TotalShortage,
		},
	})
}

func historyFilter(c *gin.Context) (repository.RegisterHistoryFilter, error) {
	var f repository.RegisterHistoryFilter
	var err error
	if f.StartDate, err = parseBound(c, "start_date", false); err != nil {
		return f, err
	}
	if f.EndDate, err = parseBound(c, "end_date", true); err != nil {
		return f, err
	}
	if s := c.Query("opened_by"); s != "" {
		id, perr := uuid.Parse(s)
		if perr != nil {
			return f, apierror.ValidationFields(map[string]string{"opened_by": "uuid"})
		}
		f.OpenedBy = &id
	}
	if s := c.Query("status"); s != "" {
		st, perr := model.ParseRegisterStatus(s)
		if perr != nil {
			return f, apierror.ValidationFields(map[string]string{"status": "oneof OPEN CLOSED"})
		}
		f.Status = &st
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return f, nil
}

// Report godoc
// @Summary Returns the running or final figures of one register
// @Tags registers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Success 200 {object} dto.RegisterReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/registers/{id}/report [get]
func (h *RegisterHandler) Report(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rep, err := h.svc.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	adjs := make([]dto.AdjustmentResponse, len(rep.Register.Adjustments))
	for i := range rep.Register.Adjustments {
		adjs[i] = toAdjustmentResponse(&rep.Register.Adjustments[i])
	}
	c.JSON(http.StatusOK, dto.RegisterReportResponse{
		Register:        toRegisterResponse(rep.Register),
		Adjustments:     adjs,
		CashSales:       rep.Totals.CashSales,
		Suprimentos:     rep.Totals.Suprimentos,
		Sangrias:        rep.Totals.Sangrias,
		ExpectedBalance: rep.ExpectedBalance,
	})
}
