package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/growshop/lockledger/internal/currency"
	"github.com/growshop/lockledger/internal/donation"
	"github.com/growshop/lockledger/internal/repos/accounts"
	"github.com/growshop/lockledger/internal/repos/audit"
	"github.com/growshop/lockledger/internal/services/ledger"
)

// HandlerProvider wraps the ledger service and donation pipeline and
// exposes HTTP handlers.
type HandlerProvider struct {
	svc      *ledger.Service
	pipeline *donation.Pipeline
	validate *validator.Validate
}

func NewHandler(svc *ledger.Service, pipeline *donation.Pipeline) *HandlerProvider {
	return &HandlerProvider{
		svc:      svc,
		pipeline: pipeline,
		validate: validator.New(),
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": msg})
}

// writeDomainError maps ledger errors to stable error kinds and HTTP
// statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "not_found", "account not found")
	case errors.Is(err, currency.ErrUnderflow):
		writeError(w, http.StatusConflict, "underflow", "debit exceeds balance")
	case errors.Is(err, currency.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be a positive integer")
	case errors.Is(err, audit.ErrDuplicateMutation):
		writeError(w, http.StatusConflict, "duplicate", "idempotency key already used")
	case errors.Is(err, accounts.ErrIdentityExists):
		writeError(w, http.StatusConflict, "already_exists", "identity already registered")
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_unavailable", "internal error")
	}
}

func (h *HandlerProvider) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad_request", "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return false
	}

	err = h.validate.Struct(dst)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}

	return true
}

// resolveGrowID reads `{growid}` from the route and resolves it to the
// account key.
func (h *HandlerProvider) resolveGrowID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	growid := chi.URLParam(r, "growid")
	if growid == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "missing growid in path")
		return 0, false
	}

	id, err := h.svc.Resolve(r.Context(), growid)
	if err != nil {
		writeDomainError(w, err)
		return 0, false
	}

	return id, true
}

type balanceResponse struct {
	GrowID    string    `json:"growid"`
	WL        int64     `json:"wl"`
	DL        int64     `json:"dl"`
	BGL       int64     `json:"bgl"`
	TotalWL   int64     `json:"total_wl"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBalanceResponse(growid string, bal accounts.Balance) balanceResponse {
	return balanceResponse{
		GrowID:    growid,
		WL:        bal.Amount.WL,
		DL:        bal.Amount.DL,
		BGL:       bal.Amount.BGL,
		TotalWL:   bal.Amount.TotalWL(),
		UpdatedAt: bal.UpdatedAt,
	}
}

type auditEntryResponse struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	DeltaWL    int64     `json:"delta_wl"`
	OldBalance string    `json:"old_balance"`
	NewBalance string    `json:"new_balance"`
	Cause      string    `json:"cause"`
	CreatedAt  time.Time `json:"created_at"`
}

func toAuditResponse(entries []audit.Entry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:         e.ID,
			Kind:       string(e.Kind),
			DeltaWL:    e.DeltaWL,
			OldBalance: e.OldBalance,
			NewBalance: e.NewBalance,
			Cause:      e.Cause,
			CreatedAt:  e.CreatedAt,
		})
	}

	return out
}

// --- Handlers ---

type createAccountRequest struct {
	GrowID string `json:"growid" validate:"required,min=1,max=32"`
}

// CreateAccountHandler handles POST /accounts
func (h *HandlerProvider) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	id, err := h.svc.Register(r.Context(), req.GrowID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"accountId": id, "growid": req.GrowID})
}

// GetBalanceHandler handles GET /accounts/{growid}/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.resolveGrowID(w, r)
	if !ok {
		return
	}

	bal, err := h.svc.GetBalance(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceResponse(chi.URLParam(r, "growid"), bal))
}

type mutationRequest struct {
	AmountWL       int64  `json:"amount_wl" validate:"required,gt=0"`
	Cause          string `json:"cause" validate:"required,max=200"`
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,max=100"`
}

// CreditHandler handles POST /accounts/{growid}/credit
func (h *HandlerProvider) CreditHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.resolveGrowID(w, r)
	if !ok {
		return
	}

	var req mutationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	bal, err := h.svc.Credit(r.Context(), accountID, req.AmountWL, req.Cause, req.IdempotencyKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceResponse(chi.URLParam(r, "growid"), bal))
}

// DebitHandler handles POST /accounts/{growid}/debit
func (h *HandlerProvider) DebitHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.resolveGrowID(w, r)
	if !ok {
		return
	}

	var req mutationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	bal, err := h.svc.Debit(r.Context(), accountID, req.AmountWL, req.Cause, req.IdempotencyKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceResponse(chi.URLParam(r, "growid"), bal))
}

type setBalanceRequest struct {
	WL    int64  `json:"wl" validate:"gte=0"`
	DL    int64  `json:"dl" validate:"gte=0"`
	BGL   int64  `json:"bgl" validate:"gte=0"`
	Cause string `json:"cause" validate:"required,max=200"`
}

// SetBalanceHandler handles PUT /accounts/{growid}/balance
func (h *HandlerProvider) SetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.resolveGrowID(w, r)
	if !ok {
		return
	}

	var req setBalanceRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	amount := currency.Amount{WL: req.WL, DL: req.DL, BGL: req.BGL}

	bal, err := h.svc.SetBalance(r.Context(), accountID, amount, req.Cause)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceResponse(chi.URLParam(r, "growid"), bal))
}

// ListAuditHandler handles GET /accounts/{growid}/audit
func (h *HandlerProvider) ListAuditHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.resolveGrowID(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.ListAudit(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuditResponse(entries))
}

// ListRecentAuditHandler handles GET /audit/recent?limit=N
func (h *HandlerProvider) ListRecentAuditHandler(w http.ResponseWriter, r *http.Request) {
	limit := 10
	raw := r.URL.Query().Get("limit")
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be 1..100")
			return
		}
		limit = n
	}

	entries, err := h.svc.ListRecentAudit(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuditResponse(entries))
}

// IngestDonationHandler handles POST /donations/webhook. The body is the
// raw message text; an optional X-Idempotency-Key header deduplicates
// redelivered webhooks (none is sent by the stock webhook, so redelivery
// credits again). Malformed or unresolved messages are expected inputs and
// answer 200 with their terminal outcome, not an error status.
func (h *HandlerProvider) IngestDonationHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	defer r.Body.Close()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "empty body")
		return
	}

	outcome := h.pipeline.Ingest(r.Context(), string(raw), r.Header.Get("X-Idempotency-Key"))

	resp := map[string]any{
		"outcome": string(outcome.Kind),
	}
	if outcome.GrowID != "" {
		resp["growid"] = outcome.GrowID
	}

	switch outcome.Kind {
	case donation.OutcomeCredited:
		resp["total_wl"] = outcome.TotalWL
		resp["balance"] = toBalanceResponse(outcome.GrowID, outcome.Balance)
		writeJSON(w, http.StatusOK, resp)
	case donation.OutcomeFailed:
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}
