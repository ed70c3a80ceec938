package handlers_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"stockfinder/internal/config"
	"stockfinder/internal/http/handlers"
)

func TestErrorHandlerGenericBody(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())

	// Route that triggers an internal error
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	var body string
	entries := captureLogs(t, func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/err", nil))
		if err != nil {
			t.Fatalf("test request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
	})
	if strings.Contains(body, "db timeout") || strings.Contains(body, "secret") {
		t.Fatalf("internal details leaked to user; body=%s", body)
	}
	e, ok := findLog(entries, "server.error")
	if !ok || !strings.Contains(e.Err, "secret trace") || e.ReqID == "" {
		t.Fatalf("real error should be logged with request id: %+v", entries)
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusTeapot || !strings.Contains(string(b), "short and stout") {
		t.Fatalf("client errors keep their message: %d %s", resp.StatusCode, b)
	}
}

func TestUnavailableStoreReturns503(t *testing.T) {
	app, db := newTestApp(t, config.Config{}, handlers.Options{})
	_ = db.Close()

	var code int
	var body map[string]any
	entries := captureLogs(t, func() {
		code, body, _ = get(t, app, "/api/searchProduct?q=tencere")
	})
	if code != fiber.StatusServiceUnavailable || body["error"] != "service unavailable" {
		t.Fatalf("want generic 503, got %d %v", code, body)
	}
	if e, ok := findLog(entries, "search.error"); !ok || !strings.Contains(e.Err, "search unavailable") {
		t.Fatalf("cause should be logged server-side: %+v", entries)
	}

	for _, url := range []string{
		"/api/nearestStore?lat=41&lng=29",
		"/api/categories",
		"/api/brandLogos",
	} {
		if code, body, _ := get(t, app, url); code != fiber.StatusServiceUnavailable || body["error"] != "service unavailable" {
			t.Fatalf("%s: want 503, got %d %v", url, code, body)
		}
	}
}
