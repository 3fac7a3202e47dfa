// Package httpapi exposes the ledger over a JSON REST API built on chi.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/dmitrijs2005/bankledger/internal/logging"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
	"github.com/dmitrijs2005/bankledger/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type LedgerService interface {
	OpenAccount(ctx context.Context, userID string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	Deposit(ctx context.Context, accountID, userID string, amount float64) (*models.Account, error)
	Withdraw(ctx context.Context, accountID, userID string, amount float64) (*models.Account, error)
	Transfer(ctx context.Context, senderID, userID, receiverID string, amount float64) (*services.TransferResult, error)
	GetBalance(ctx context.Context, accountID, userID string) (float64, error)
	ListTransactions(ctx context.Context, accountID, userID string, filter models.TransactionFilter) ([]models.Transaction, error)
}

type StatementExporter interface {
	Export(ctx context.Context, accountID, userID string, filter models.TransactionFilter) (*services.Statement, error)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Authenticate(token string) (string, error)
}

type Handler struct {
	users          UserService
	ledger         LedgerService
	statements     StatementExporter
	logger         logging.Logger
	exposeInternal bool
}

func NewHandler(us UserService, ls LedgerService, se StatementExporter, l logging.Logger, exposeInternal bool) *Handler {
	return &Handler{users: us, ledger: ls, statements: se, logger: l, exposeInternal: exposeInternal}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	UserName string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
	Email    string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// amountRequest accepts the amount as a JSON number or a numeric string.
type amountRequest struct {
	Amount json.Number `json:"amount"`
}

type transferRequest struct {
	ReceiverAccountID string      `json:"receiverAccountId"`
	Amount            json.Number `json:"amount"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.Validationf("request body exceeds %d bytes", maxBodyBytes)
		}
		return common.Validationf("invalid request body")
	}
	return nil
}

func parseAmount(n json.Number) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(n.String()), 64)
	if err != nil {
		return 0, common.Validationf("amount must be a positive number")
	}
	if err := services.ValidateAmount(amount); err != nil {
		return 0, err
	}
	return amount, nil
}

func accountID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "accountId")
	if _, err := uuid.Parse(id); err != nil {
		return "", common.Validationf("invalid account id")
	}
	return id, nil
}

func tokenResponseFrom(p *services.TokenPair) tokenResponse {
	return tokenResponse{
		Token:        p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(p.ExpiresIn / time.Second),
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{ID: u.ID, UserName: u.UserName, Email: u.Email})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	pair, err := h.users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponseFrom(pair))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		h.writeError(w, r, common.ErrInvalidToken)
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponseFrom(pair))
}

func (h *Handler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.ledger.OpenAccount(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.ledger.ListAccounts(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type balanceOp func(ctx context.Context, accountID, userID string, amount float64) (*models.Account, error)

// moveFunds serves deposit and withdraw, which share their request shape.
func (h *Handler) moveFunds(op balanceOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := accountID(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		var req amountRequest
		if err := decode(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		a, err := op(r.Context(), id, userIDFromContext(r.Context()), amount)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req transferRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := uuid.Parse(req.ReceiverAccountID); err != nil {
		h.writeError(w, r, common.Validationf("invalid receiver account id"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.ledger.Transfer(r.Context(), id, userIDFromContext(r.Context()), req.ReceiverAccountID, amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	b, err := h.ledger.GetBalance(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: b})
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.ledger.ListTransactions(r.Context(), id, userIDFromContext(r.Context()), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	st, err := h.statements.Export(r.Context(), id, userIDFromContext(r.Context()), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

const dateOnly = "2006-01-02"

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// parseFilter reads type, startDate and endDate from the query string.
func parseFilter(r *http.Request) (models.TransactionFilter, error) {
	var f models.TransactionFilter
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		t, err := models.ParseTransactionType(v)
		if err != nil {
			return f, common.Validationf("invalid type %q", v)
		}
		f.Type = t
	}
	if v := q.Get("startDate"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return f, common.Validationf("invalid startDate %q", v)
		}
		f.StartDate = t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return f, common.Validationf("invalid endDate %q", v)
		}
		f.EndDate = t
	}
	return f, nil
}
