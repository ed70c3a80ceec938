package handlers_test

import (
	"testing"

	"stockfinder/internal/config"
	"stockfinder/internal/http/handlers"
)

func TestValidationBadInputs(t *testing.T) {
	app, _ := newTestApp(t, config.Config{}, handlers.Options{})

	cases := []string{
		"/api/searchProduct",
		"/api/searchProduct?q=%20%20",
		"/api/searchProduct?q=%3Cscript%3E",
		"/api/nearestStore?lat=abc&lng=29",
		"/api/nearestStore?lat=41",
		"/api/nearestStore?lat=95&lng=29",
		"/api/nearestStore?lat=NaN&lng=29",
		"/api/nearestStore?lat=41&lng=29&productId=-3",
		"/api/nearestStore?lat=41&lng=29&productId=1.5",
		"/api/nearestStore?lat=41&lng=29&productId=1&inStock=maybe",
		"/api/productsByCategory",
		"/api/productsByCategory?category=%3Cb%3E",
	}
	for _, url := range cases {
		code, body, _ := get(t, app, url)
		if code != 400 {
			t.Errorf("%s: want 400, got %d", url, code)
		}
		if _, ok := body["error"].(string); !ok {
			t.Errorf("%s: error message missing: %v", url, body)
		}
	}
}

func TestValidationAcceptsTurkishQuery(t *testing.T) {
	app, _ := newTestApp(t, config.Config{}, handlers.Options{})
	code, body, _ := get(t, app, "/api/searchProduct?q=%C3%87el%C4%B0k") // "Çelİk"
	if code != 200 || len(body["items"].([]any)) != 1 {
		t.Fatalf("turkish query: %d %v", code, body)
	}
}

func TestValidationFailuresAreLogged(t *testing.T) {
	app, _ := newTestApp(t, config.Config{}, handlers.Options{})
	entries := captureLogs(t, func() {
		get(t, app, "/api/nearestStore?lat=abc&lng=29")
	})
	e, ok := findLog(entries, "validation.fail")
	if !ok || e.Kind != "security" || e.Fields["field"] != "lat/lng" {
		t.Fatalf("expected security log for lat/lng: %+v", entries)
	}
}
