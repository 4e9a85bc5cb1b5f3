package handler

import (
	"strconv"

	"alpha-ledger/internal/adapter/http/dto"
	"alpha-ledger/internal/adapter/http/middleware"
	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/internal/metrics"
	"alpha-ledger/pkg/apperror"
	"alpha-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// WalletHandler handles wallet and transfer endpoints.
type WalletHandler struct {
	transferSvc ports.TransferService
	metrics     *metrics.Metrics
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(transferSvc ports.TransferService, m *metrics.Metrics) *WalletHandler {
	return &WalletHandler{transferSvc: transferSvc, metrics: m}
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallets, err := h.transferSvc.ListWallets(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromWallets(wallets))
}

// TransferOwn handles POST /api/v1/wallets/transfer.
func (h *WalletHandler) TransferOwn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.OwnTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	from, _ := domain.ParseWalletType(req.FromWalletType)
	to, _ := domain.ParseWalletType(req.ToWalletType)

	result, err := h.transferSvc.TransferOwnWallets(c.Request.Context(), userID, from, to, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Transfers.Inc()
	}
	response.OK(c, dto.FromTransferResult(result))
}

// TransferToUser handles POST /api/v1/transfers.
func (h *WalletHandler) TransferToUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.UserTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid recipient id"))
		return
	}

	result, err := h.transferSvc.TransferToUser(c.Request.Context(), userID, recipientID, req.Amount, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Transfers.Inc()
	}
	response.OK(c, dto.FromTransferResult(result))
}

// ListTransactions handles GET /api/v1/wallets/:type/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wt, ok := domain.ParseWalletType(c.Param("type"))
	if !ok {
		response.Error(c, apperror.Validation("invalid wallet type"))
		return
	}

	limit, offset := pagination(c)
	entries, err := h.transferSvc.ListTransactions(c.Request.Context(), userID, wt, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromWalletTransactions(entries))
}

// currentUserID pulls the authenticated user from the request context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// pagination parses limit/offset query parameters with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
