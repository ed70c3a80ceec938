package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"stockfinder/internal/config"
	"stockfinder/internal/http/handlers"
)

func TestChatRelay(t *testing.T) {
	var got map[string]string
	url := automationServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"output":"Mercimek çorbası deneyin"}`))
	})
	app, _ := newTestApp(t, config.Config{ChatWebhookURL: url, ChatTimeout: time.Second}, handlers.Options{})

	code, body, hdr := postJSON(t, app, "/api/chat", `{"message":"elimde mercimek var"}`)
	if code != 200 {
		t.Fatalf("status %d body %v", code, body)
	}
	if got["chatInput"] != "elimde mercimek var" || got["sessionId"] == "" {
		t.Fatalf("webhook payload %+v", got)
	}
	if body["sessionId"] != got["sessionId"] || body["output"] != "Mercimek çorbası deneyin" {
		t.Fatalf("reply %v", body)
	}
	if hdr.Get("Cache-Control") != "no-store" {
		t.Fatalf("chat replies must not be cached: %q", hdr.Get("Cache-Control"))
	}

	if code, _, _ := postJSON(t, app, "/api/chat", `{"message":"   "}`); code != 400 {
		t.Fatalf("empty message: want 400, got %d", code)
	}
	if code, _, _ := postJSON(t, app, "/api/chat", `{"message":"x","sessionId":"../../etc"}`); code != 400 {
		t.Fatalf("bad session id: want 400, got %d", code)
	}
}

func TestChatUnconfiguredIs503(t *testing.T) {
	app, _ := newTestApp(t, config.Config{}, handlers.Options{})
	code, body, _ := postJSON(t, app, "/api/chat", `{"message":"merhaba"}`)
	if code != 503 || body["error"] != "service unavailable" {
		t.Fatalf("want 503, got %d %v", code, body)
	}
}
