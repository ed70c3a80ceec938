package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"stockfinder/internal/config"
	"stockfinder/internal/http/handlers"
	applog "stockfinder/internal/log"
	"stockfinder/internal/metrics"
	"stockfinder/internal/repos"
)

// newTestApp wires the real app over an in-memory seeded database.
func newTestApp(t *testing.T, cfg config.Config, opts handlers.Options) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg.DBDSN = ":memory:"
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	deps := handlers.NewDeps(db, cfg, opts.Metrics)
	return handlers.NewApp(deps, opts), db
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any, http.Header) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(body, &out)
	return resp.StatusCode, out, resp.Header
}

func get(t *testing.T, app *fiber.App, url string) (int, map[string]any, http.Header) {
	t.Helper()
	return do(t, app, httptest.NewRequest("GET", url, nil))
}

func postJSON(t *testing.T, app *fiber.App, url, body string) (int, map[string]any, http.Header) {
	t.Helper()
	req := httptest.NewRequest("POST", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

type logEntry struct {
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	ReqID  string         `json:"req_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuf
	applog.SetOutput(&buf)
	defer applog.SetOutput(os.Stdout)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
