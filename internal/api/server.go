package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/growshop/lockledger/internal/donation"
	"github.com/growshop/lockledger/internal/services/ledger"
)

// NewServer creates and returns a configured *http.Server for the ledger API.
func NewServer(port uint16, svc *ledger.Service, pipeline *donation.Pipeline) *http.Server {
	mux := NewRouter(svc, pipeline)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
