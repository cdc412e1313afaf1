package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/growshop/lockledger/internal/donation"
	"github.com/growshop/lockledger/internal/services/ledger"
)

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(svc *ledger.Service, pipeline *donation.Pipeline) http.Handler {
	h := NewHandler(svc, pipeline)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/accounts", h.CreateAccountHandler)
	r.Get("/accounts/{growid}/balance", h.GetBalanceHandler)
	r.Put("/accounts/{growid}/balance", h.SetBalanceHandler)
	r.Post("/accounts/{growid}/credit", h.CreditHandler)
	r.Post("/accounts/{growid}/debit", h.DebitHandler)
	r.Get("/accounts/{growid}/audit", h.ListAuditHandler)
	r.Get("/audit/recent", h.ListRecentAuditHandler)

	r.Post("/donations/webhook", h.IngestDonationHandler)

	return r
}
