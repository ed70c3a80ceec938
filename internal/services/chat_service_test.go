package services_test

import (
	"context"
	"errors"
	"testing"

	"stockfinder/internal/services"
)

type fakeRelay struct {
	session string
	err     error
}

func (f *fakeRelay) Chat(_ context.Context, _ string, sessionID string) (map[string]any, error) {
	f.session = sessionID
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{"output": "Mercimek çorbası"}, nil
}

func TestChatMintsSessionID(t *testing.T) {
	relay := &fakeRelay{}
	reply, err := services.NewChatService(relay).Send(context.Background(), "mercimek var", "")
	if err != nil {
		t.Fatal(err)
	}
	if relay.session == "" || reply["sessionId"] != relay.session {
		t.Fatalf("session id not propagated: relay=%q reply=%v", relay.session, reply)
	}

	reply, _ = services.NewChatService(relay).Send(context.Background(), "tekrar", "abc")
	if relay.session != "abc" || reply["sessionId"] != "abc" {
		t.Fatalf("caller session id should be kept: %v", reply)
	}
}

func TestChatUnavailable(t *testing.T) {
	if _, err := services.NewChatService(nil).Send(context.Background(), "x", ""); !errors.Is(err, services.ErrChatUnavailable) {
		t.Fatalf("want ErrChatUnavailable, got %v", err)
	}
	_, err := services.NewChatService(&fakeRelay{err: errors.New("502")}).Send(context.Background(), "x", "")
	if !errors.Is(err, services.ErrChatUnavailable) {
		t.Fatalf("want ErrChatUnavailable, got %v", err)
	}
}
