package handler

import (
	"net/http"
	"strings"
	"time"

	"salonledger/internal/apierror"
	"salonledger/internal/cashflow"
	"salonledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultProjectionDays applies when end_date is omitted.
const defaultProjectionDays = 30

type CashflowHandler struct{ svc service.ProjectionService }

func NewCashflowHandler(svc service.ProjectionService) *CashflowHandler {
	return &CashflowHandler{svc: svc}
}

// Projection godoc
// @Summary Projects daily balances over a date window
// @Tags cashflow
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "YYYY-MM-DD, defaults to today"
// @Param end_date query string false "YYYY-MM-DD (inclusive), defaults to 30 days"
// @Param scenario query string false "OPTIMISTIC, REALISTIC or PESSIMISTIC" default(REALISTIC)
// @Param account_ids query string false "Comma separated account IDs"
// @Success 200 {object} dto.ProjectionResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/cashflow/projection [get]
func (h *CashflowHandler) Projection(c *gin.Context) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if s := c.Query("start_date"); s != "" {
		t, err := parseDate("start_date", s)
		if err != nil {
			respondError(c, err)
			return
		}
		start = t
	}
	end := start.AddDate(0, 0, defaultProjectionDays-1)
	if s := c.Query("end_date"); s != "" {
		t, err := parseDate("end_date", s)
		if err != nil {
			respondError(c, err)
			return
		}
		end = t
	}

	scenario, err := cashflow.ParseScenario(c.DefaultQuery("scenario", string(cashflow.Realistic)))
	if err != nil {
		respondError(c, apierror.ValidationFields(map[string]string{"scenario": "oneof OPTIMISTIC REALISTIC PESSIMISTIC"}))
		return
	}

	scope, err := projectionScope(c.Query("account_ids"))
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := h.svc.Project(c.Request.Context(), scope, start, end, scenario)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectionResponse(p))
}

func projectionScope(raw string) (service.ProjectionScope, error) {
	var scope service.ProjectionScope
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return scope, apierror.ValidationFields(map[string]string{"account_ids": "comma separated uuids"})
		}
		scope.AccountIDs = append(scope.AccountIDs, id)
	}
	return scope, nil
}
