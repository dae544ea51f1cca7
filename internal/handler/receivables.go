package handler

import (
	"net/http"
	"time"

	"salonledger/internal/apierror"
	"salonledger/internal/dto"
	"salonledger/internal/model"
	"salonledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pendingWindowDays is the default look-ahead of the pending listings.
const pendingWindowDays = 30

type ReceivableHandler struct {
	receivables service.ReceivableService
	payables    service.PayableService
}

func NewReceivableHandler(receivables service.ReceivableService, payables service.PayableService) *ReceivableHandler {
	return &ReceivableHandler{receivables: receivables, payables: payables}
}

// CreateInstallments godoc
// @Summary Creates the installment plan of a sale
// @Description Either list the installments explicitly or send count and first_due_date
// @Description to split the total into equal monthly installments.
// @Tags receivables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sale_id path string true "Sale ID"
// @Param body body dto.CreateInstallmentsRequest true "Plan"
// @Success 201 {object} dto.CreateInstallmentsResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales/{sale_id}/installments [post]
func (h *ReceivableHandler) CreateInstallments(c *gin.Context) {
	saleID, ok := uuidParam(c, "sale_id")
	if !ok {
		return
	}
	var req dto.CreateInstallmentsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if req.Count > 0 {
		first, err := parseDate("first_due_date", req.FirstDueDate)
		if err != nil {
			respondError(c, err)
			return
		}
		insts, err := h.receivables.CreateInstallmentSchedule(ctx, saleID, req.Count, first, req.Total)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := dto.CreateInstallmentsResponse{SaleID: saleID.String()}
		for i := range insts {
			resp.InstallmentIDs = append(resp.InstallmentIDs, insts[i].ID.String())
			resp.Installments = append(resp.Installments, toInstallmentResponse(&insts[i]))
		}
		c.JSON(http.StatusCreated, resp)
		return
	}

	plans := make([]service.InstallmentPlan, len(req.Installments))
	for i, p := range req.Installments {
		due, err := parseDate("due_date", p.DueDate)
		if err != nil {
			respondError(c, err)
			return
		}
		plans[i] = service.InstallmentPlan{Number: p.Number, Amount: p.Amount, DueDate: due}
	}
	ids, err := h.receivables.CreateInstallments(ctx, saleID, req.Total, plans)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.CreateInstallmentsResponse{SaleID: saleID.String(), InstallmentIDs: make([]string, len(ids))}
	for i, id := range ids {
		resp.InstallmentIDs[i] = id.String()
	}
	c.JSON(http.StatusCreated, resp)
}

// ListBySale godoc
// @Summary Lists the installments of a sale
// @Tags receivables
// @Produce json
// @Security BearerAuth
// @Param sale_id path string true "Sale ID"
// @Success 200 {array} dto.InstallmentResponse
// @Router /v1/sales/{sale_id}/installments [get]
func (h *ReceivableHandler) ListBySale(c *gin.Context) {
	saleID, ok := uuidParam(c, "sale_id")
	if !ok {
		return
	}
	insts, err := h.receivables.ListBySale(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, installmentList(insts))
}

// RegisterReceipt godoc
// @Summary Registers the payment of an installment
// @Tags receivables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Installment ID"
// @Param body body dto.RegisterReceiptRequest true "Receipt"
// @Success 201 {object} dto.ReceiptResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/installments/{id}/receipt [post]
func (h *ReceivableHandler) RegisterReceipt(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.RegisterReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	receivedAt, err := parseDate("received_at", req.ReceivedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		respondError(c, apierror.ValidationFields(map[string]string{"account_id": "uuid"}))
		return
	}
	movID, err := h.receivables.RegisterReceipt(c.Request.Context(), service.ReceiptInput{
		InstallmentID: id,
		Amount:        req.Amount,
		ReceivedAt:    receivedAt,
		AccountID:     accountID,
		Method:        model.PaymentMethod(req.Method),
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ReceiptResponse{InstallmentID: id.String(), MovementID: movID.String()})
}

// ListPending godoc
// @Summary Lists pending installments due in a date range
// @Tags receivables
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD, defaults to today"
// @Param to query string false "YYYY-MM-DD, defaults to 30 days after from"
// @Success 200 {array} dto.InstallmentResponse
// @Router /v1/installments/pending [get]
func (h *ReceivableHandler) ListPending(c *gin.Context) {
	from, to, err := pendingWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}
	insts, err := h.receivables.ListPending(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, installmentList(insts))
}

func installmentList(insts []model.SaleInstallment) []dto.InstallmentResponse {
	out := make([]dto.InstallmentResponse, len(insts))
	for i := range insts {
		out[i] = toInstallmentResponse(&insts[i])
	}
	return out
}

func pendingWindow(c *gin.Context) (time.Time, time.Time, error) {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	if s := c.Query("from"); s != "" {
		t, err := parseDate("from", s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	to := from.AddDate(0, 0, pendingWindowDays)
	if s := c.Query("to"); s != "" {
		t, err := parseDate("to", s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apierror.Validation("to must not be before from")
	}
	return from, to, nil
}

// ── Payables ──────────────────────────────────────────────────────────────────

// CreatePayable godoc
// @Summary Creates an account payable
// @Tags payables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreatePayableRequest true "Payable"
// @Success 201 {object} dto.PayableResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/payables [post]
func (h *ReceivableHandler) CreatePayable(c *gin.Context) {
	var req dto.CreatePayableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	accountID, err := optionalUUID("account_id", req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := h.payables.CreatePayable(c.Request.Context(), service.CreatePayableInput{
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		DueDate:     due,
		AccountID:   accountID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPayableResponse(p))
}

// PayPayable godoc
// @Summary Pays a payable, posting the outflow to the ledger
// @Tags payables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payable ID"
// @Param body body dto.PayPayableRequest true "Payment"
// @Success 200 {object} dto.PayableResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payables/{id}/pay [post]
func (h *ReceivableHandler) PayPayable(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.PayPayableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	accountID, err := optionalUUID("account_id", req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := h.payables.PayPayable(c.Request.Context(), service.PayPayableInput{
		PayableID: id,
		AccountID: accountID,
		Method:    model.PaymentMethod(req.Method),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPayableResponse(p))
}

// ListPendingPayables godoc
// @Summary Lists pending payables due in a date range
// @Tags payables
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD, defaults to today"
// @Param to query string false "YYYY-MM-DD, defaults to 30 days after from"
// @Success 200 {array} dto.PayableResponse
// @Router /v1/payables/pending [get]
func (h *ReceivableHandler) ListPendingPayables(c *gin.Context) {
	from, to, err := pendingWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ps, err := h.payables.ListPendingPayables(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.PayableResponse, len(ps))
	for i := range ps {
		out[i] = toPayableResponse(&ps[i])
	}
	c.JSON(http.StatusOK, out)
}

// CreateRecurring godoc
// @Summary Creates a recurring expense template
// @Tags payables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateRecurringExpenseRequest true "Recurring expense"
// @Success 201 {object} dto.RecurringExpenseResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/recurring-expenses [post]
func (h *ReceivableHandler) CreateRecurring(c *gin.Context) {
	var req dto.CreateRecurringExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	accountID, err := optionalUUID("account_id", req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	e, err := h.payables.CreateRecurringExpense(c.Request.Context(), service.CreateRecurringInput{
		Description: req.Description,
		Amount:      req.Amount,
		Frequency:   model.Frequency(req.Frequency),
		StartDate:   start,
		EndDate:     end,
		Category:    req.Category,
		AccountID:   accountID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecurringResponse(e))
}

// ListRecurring godoc
// @Summary Lists active recurring expenses
// @Tags payables
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.RecurringExpenseResponse
// @Router /v1/recurring-expenses [get]
func (h *ReceivableHandler) ListRecurring(c *gin.Context) {
	es, err := h.payables.ListActiveRecurring(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.RecurringExpenseResponse, len(es))
	for i := range es {
		out[i] = toRecurringResponse(&es[i])
	}
	c.JSON(http.StatusOK, out)
}

// DeactivateRecurring godoc
// @Summary Stops a recurring expense
// @Tags payables
// @Security BearerAuth
// @Param id path string true "Recurring expense ID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/recurring-expenses/{id} [delete]
func (h *ReceivableHandler) DeactivateRecurring(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.payables.DeactivateRecurring(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
