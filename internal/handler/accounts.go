package handler

import (
	"net/http"
	"strconv"
	"time"

	"salonledger/internal/apierror"
	"salonledger/internal/dto"
	"salonledger/internal/model"
	"salonledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerHandler struct{ svc service.LedgerService }

func NewLedgerHandler(svc service.LedgerService) *LedgerHandler { return &LedgerHandler{svc: svc} }

// CreateAccount godoc
// @Summary Creates a bank, card, wallet or cash account
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateAccountRequest true "Account data"
// @Success 201 {object} dto.AccountResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/accounts [post]
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	acctType, err := model.ParseAccountType(req.Type)
	if err != nil {
		respondError(c, apierror.Validation("%v", err))
		return
	}
	acct, err := h.svc.CreateAccount(c.Request.Context(), service.CreateAccountInput{
		Name:           req.Name,
		Type:           acctType,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResponse(acct))
}

// ListAccounts godoc
// @Summary Lists accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include deactivated accounts"
// @Success 200 {array} dto.AccountResponse
// @Router /v1/accounts [get]
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	accts, err := h.svc.ListAccounts(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.AccountResponse, len(accts))
	for i := range accts {
		out[i] = toAccountResponse(&accts[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetAccount godoc
// @Summary Returns one account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/accounts/{id} [get]
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	acct, err := h.svc.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(acct))
}

// Balance godoc
// @Summary Returns the account balance, now or as of a point in time
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param as_of query string false "RFC 3339 timestamp or YYYY-MM-DD (end of that day)"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/accounts/{id}/balance [get]
func (h *LedgerHandler) Balance(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	asOf, err := parseBound(c, "as_of", true)
	if err != nil {
		respondError(c, err)
		return
	}

	var (
		bal decimal.Decimal
		at  = time.Now().UTC()
	)
	if asOf != nil {
		at = *asOf
		bal, err = h.svc.BalanceAsOf(c.Request.Context(), id, at)
	} else {
		bal, err = h.svc.CurrentBalance(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: id.String(), Balance: bal, AsOf: ts(at)})
}

// ListMovements godoc
// @Summary Lists the movements of an account in chronological order
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param from query string false "RFC 3339 timestamp or YYYY-MM-DD"
// @Param to query string false "RFC 3339 timestamp or YYYY-MM-DD (inclusive)"
// @Success 200 {array} dto.MovementResponse
// @Router /v1/accounts/{id}/movements [get]
func (h *LedgerHandler) ListMovements(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	from, err := parseBound(c, "from", false)
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := parseBound(c, "to", true)
	if err != nil {
		respondError(c, err)
		return
	}
	movs, err := h.svc.ListByAccount(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.MovementResponse, len(movs))
	for i := range movs {
		out[i] = toMovementResponse(&movs[i])
	}
	c.JSON(http.StatusOK, out)
}

// UpdateInitialBalance godoc
// @Summary Changes the initial balance of an account without movements
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param body body dto.UpdateInitialBalanceRequest true "New initial balance"
// @Success 200 {object} dto.AccountResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/accounts/{id}/initial-balance [patch]
func (h *LedgerHandler) UpdateInitialBalance(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInitialBalanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	acct, err := h.svc.UpdateInitialBalance(c.Request.Context(), id, req.InitialBalance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(acct))
}

// DeactivateAccount godoc
// @Summary Deletes an unused account or deactivates one with history
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} dto.DeactivateAccountResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/accounts/{id} [delete]
func (h *LedgerHandler) DeactivateAccount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeactivateAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeactivateAccountResponse{ID: id.String(), Deleted: deleted})
}

// AppendMovement godoc
// @Summary Posts a movement to the ledger
// @Tags movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AppendMovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/movements [post]
func (h *LedgerHandler) AppendMovement(c *gin.Context) {
	var req dto.AppendMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	in, err := appendInput(req)
	if err != nil {
		respondError(c, err)
		return
	}
	mov, err := h.svc.Append(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMovementResponse(mov))
}

func appendInput(req dto.AppendMovementRequest) (service.AppendMovementInput, error) {
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return service.AppendMovementInput{}, apierror.ValidationFields(map[string]string{"account_id": "uuid"})
	}
	refID, err := optionalUUID("source_ref_id", req.SourceRefID)
	if err != nil {
		return service.AppendMovementInput{}, err
	}
	// The oneof tags already passed; the service re-checks the typed values.
	return service.AppendMovementInput{
		AccountID:   accountID,
		Direction:   model.Direction(req.Direction),
		Amount:      req.Amount,
		Method:      model.PaymentMethod(req.Method),
		SourceType:  model.SourceType(req.SourceType),
		SourceRefID: refID,
		Description: req.Description,
	}, nil
}

// ReverseMovement godoc
// @Summary Posts the compensating movement for a previous one
// @Tags movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Movement ID"
// @Param body body dto.ReverseMovementRequest true "Reason"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/movements/{id}/reverse [post]
func (h *LedgerHandler) ReverseMovement(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReverseMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	mov, err := h.svc.Reverse(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMovementResponse(mov))
}

// Transfer godoc
// @Summary Moves money between two accounts
// @Tags movements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.TransferRequest true "Transfer"
// @Success 201 {object} dto.TransferResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/transfers [post]
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	from, errFrom := uuid.Parse(req.FromAccountID)
	to, errTo := uuid.Parse(req.ToAccountID)
	if errFrom != nil || errTo != nil {
		respondError(c, apierror.Validation("account ids must be uuids"))
		return
	}
	res, err := h.svc.Transfer(c.Request.Context(), service.TransferInput{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        req.Amount,
		Method:        model.PaymentMethod(req.Method),
		Description:   req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.TransferResponse{
		TransferID: res.TransferID.String(),
		Out:        toMovementResponse(res.Out),
		In:         toMovementResponse(res.In),
	})
}
