package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"margin-gateway/pkg/exchanges/bitmex"
)

// newUnknownSymbolVenue runs a realtime endpoint that refuses every
// subscription and a REST endpoint that knows no positions.
func newUnknownSymbolVenue(t *testing.T) *bitmex.Client {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"info":"Welcome to the BitMEX Realtime API.","version":"2.0.0"}`))
		var op map[string]any
		if err := conn.ReadJSON(&op); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":400,"error":"Unknown or expired symbol.","meta":{},"request":{"op":"subscribe"}}`))
	}))
	t.Cleanup(ws.Close)

	rest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"Position not found","name":"NotFoundError"}}`))
	}))
	t.Cleanup(rest.Close)

	return bitmex.NewClient(bitmex.Config{
		RESTURL: rest.URL,
		WSURL:   "ws" + strings.TrimPrefix(ws.URL, "http") + "/realtime",
		Timeout: time.Second,
	}, nil, nil)
}

func TestVenueUnknownSymbol(t *testing.T) {
	env := newTestAPIServerWithVenue(t, Options{}, newUnknownSymbolVenue(t))
	env.populate(t, 1)

	t.Run("price action", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/priceaction/?symbol=NOPEUSD", "", nil)
		if resp.status != http.StatusNotFound {
			t.Fatalf("expected 404, got %d (%v)", resp.status, resp.body)
		}
		if resp.errorTitle() != "Not found" {
			t.Errorf("expected title %q, got %q", "Not found", resp.errorTitle())
		}
	})

	t.Run("leverage", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPatch, env.srv.URL+"/accounts/pub-1/positions/NOPEUSD/",
			strings.NewReader(`{"leverage":2}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api_secret", "secret-1")
		if resp := env.send(t, req); resp.status != http.StatusNotFound {
			t.Errorf("expected 404, got %d (%v)", resp.status, resp.body)
		}
	})
}
