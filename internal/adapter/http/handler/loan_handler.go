package handler

import (
	"alpha-ledger/internal/adapter/http/dto"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/internal/metrics"
	"alpha-ledger/pkg/apperror"
	"alpha-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoanHandler handles the lending marketplace endpoints.
type LoanHandler struct {
	lendingSvc ports.LendingService
	metrics    *metrics.Metrics
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(lendingSvc ports.LendingService, m *metrics.Metrics) *LoanHandler {
	return &LoanHandler{lendingSvc: lendingSvc, metrics: m}
}

// PostOffer handles POST /api/v1/loans.
func (h *LoanHandler) PostOffer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PostOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	loan, err := h.lendingSvc.PostOffer(c.Request.Context(), userID, req.Principal, req.TermDays)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.LoansPosted.Inc()
	}
	response.Created(c, dto.FromLoan(loan))
}

// Cancel handles POST /api/v1/loans/:id/cancel.
func (h *LoanHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid loan id"))
		return
	}

	result, err := h.lendingSvc.CancelOffer(c.Request.Context(), userID, loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"loan":             dto.FromLoan(result.Loan),
		"refunded_amount":  result.RefundedAmount,
		"new_main_balance": result.NewMainBalance,
	})
}

// Take handles POST /api/v1/loans/:id/take.
func (h *LoanHandler) Take(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid loan id"))
		return
	}

	loan, err := h.lendingSvc.TakeOffer(c.Request.Context(), userID, loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.LoansTaken.Inc()
	}
	response.OK(c, dto.FromLoan(loan))
}

// Repay handles POST /api/v1/loans/:id/repay.
func (h *LoanHandler) Repay(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid loan id"))
		return
	}

	// Body optional: an empty body means main-wallet-only repayment.
	var req dto.RepayRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.lendingSvc.Repay(c.Request.Context(), userID, loanID, req.AutoDeduct)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.LoansRepaid.Inc()
	}
	response.OK(c, gin.H{
		"loan":             dto.FromLoan(result.Loan),
		"amount_paid":      result.AmountPaid,
		"new_main_balance": result.NewMainBalance,
	})
}

// ListOpen handles GET /api/v1/loans/open.
func (h *LoanHandler) ListOpen(c *gin.Context) {
	limit, offset := pagination(c)
	loans, err := h.lendingSvc.ListOpenOffers(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromLoans(loans))
}

// ListMine handles GET /api/v1/loans/mine.
func (h *LoanHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	loans, err := h.lendingSvc.ListUserLoans(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromLoans(loans))
}
