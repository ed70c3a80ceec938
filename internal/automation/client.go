package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNotConfigured = errors.New("automation webhook not configured")
	ErrBadStatus     = errors.New("automation webhook returned non-2xx status")
	ErrBadResponse   = errors.New("automation webhook returned an unusable body")
)

const (
	ActionSearchProduct = "searchProduct"
	ActionNearestStore  = "nearestStore"
)

// Webhook posts JSON documents to one workflow URL with a bounded timeout.
type Webhook struct {
	URL     string
	Timeout time.Duration
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{URL: url, Timeout: timeout}
}

// Post sends body as JSON and returns the raw response body of a 2xx answer.
func (w *Webhook) Post(ctx context.Context, body any) ([]byte, error) {
	if w == nil || w.URL == "" {
		return nil, ErrNotConfigured
	}
	timeout := w.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	agent := fiber.Post(w.URL).JSON(body).Timeout(timeout)
	code, resp, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("post %s: %w", w.URL, errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, code)
	}
	return resp, nil
}

type request struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// Client is the search/ranking delegate speaking the {action, payload} protocol.
type Client struct {
	hook *Webhook
}

func New(url string, timeout time.Duration) *Client {
	return &Client{hook: NewWebhook(url, timeout)}
}

func (c *Client) call(ctx context.Context, action string, payload any) ([]byte, error) {
	return c.hook.Post(ctx, request{Action: action, Payload: payload})
}

// Chat relays a chatbot message. The webhook's JSON object is returned as is.
func (w *Webhook) Chat(ctx context.Context, message, sessionID string) (map[string]any, error) {
	raw, err := w.Post(ctx, map[string]string{"chatInput": message, "sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		// some workflows answer with a bare string or array
		var v any
		if jerr := json.Unmarshal(raw, &v); jerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		out = map[string]any{"output": v}
	}
	return out, nil
}
