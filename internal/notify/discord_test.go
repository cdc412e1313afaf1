package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiscordWebhook_Notify(t *testing.T) {
	t.Parallel()

	var got map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		err := json.NewDecoder(r.Body).Decode(&got)
		if err != nil {
			t.Errorf("decode payload: %v", err)
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewDiscordWebhook(srv.URL)
	sink.Notify(context.Background(), "[donation] Foo credited 150 wl")

	if got["content"] != "[donation] Foo credited 150 wl" {
		t.Fatalf("content = %q", got["content"])
	}
}

func TestDiscordWebhook_FailuresSwallowed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	// a rejecting endpoint must not panic or return anything
	sink := NewDiscordWebhook(srv.URL)
	sink.Notify(context.Background(), "message")

	// an unreachable endpoint likewise
	srv.Close()
	sink.Notify(context.Background(), "message")
}

func TestDiscordWebhook_EmptyURLIsNoop(t *testing.T) {
	t.Parallel()

	sink := NewDiscordWebhook("")
	sink.Notify(context.Background(), "never sent")
}
