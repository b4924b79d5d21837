package http

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/aretw0/seee/internal/validation"
	"github.com/aretw0/seee/pkg/referral"
)

type paymentRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// PaymentResponse lists the commissions credited by a payment.
type PaymentResponse struct {
	UserID      string                `json:"user_id"`
	Amount      decimal.Decimal       `json:"amount"`
	Commissions []referral.Commission `json:"commissions"`
}

// CreatePayment handles POST /payments for the authenticated user.
func (s *Server) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeError(w, r, badRequest("amount is not a decimal number"))
		return
	}

	userID := UserID(r.Context())
	commissions, err := s.Payments.ProcessPayment(r.Context(), userID, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if commissions == nil {
		commissions = []referral.Commission{}
	}
	writeJSON(w, http.StatusOK, PaymentResponse{UserID: userID, Amount: amount, Commissions: commissions})
}

// GetBalance handles GET /cabinet/balance.
func (s *Server) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.Payments.Balance(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GetTransactions handles GET /cabinet/transactions?limit=N.
func (s *Server) GetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, badRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	txs, err := s.Payments.Transactions(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []referral.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// GetReferrals handles GET /cabinet/referrals.
func (s *Server) GetReferrals(w http.ResponseWriter, r *http.Request) {
	downline, err := s.Payments.Downline(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if downline == nil {
		downline = []referral.DownlineEntry{}
	}
	writeJSON(w, http.StatusOK, downline)
}
