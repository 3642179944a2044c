package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/praja-labs/nivaran/internal/engine"
	"github.com/praja-labs/nivaran/internal/openai"
)

type staticGateway struct{ reply string }

func (g staticGateway) Complete(context.Context, string, []openai.Message, openai.CompleteOptions) (string, error) {
	return g.reply, nil
}

func newTestHost(ttl time.Duration) *Host {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(staticGateway{reply: "tell me more"}, nil, engine.Options{ChatModel: "test"}, logger)
	return NewHost(eng, 10, ttl, logger)
}

func TestStartAndTurn(t *testing.T) {
	h := newTestHost(time.Hour)

	id, opening := h.Start("")
	if id == "" {
		t.Fatal("expected a conversation id")
	}
	if opening.Text == "" {
		t.Fatal("expected an opening greeting")
	}

	turn, err := h.Turn(context.Background(), id, "my road is broken", "")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if turn.Text != "tell me more" {
		t.Errorf("unexpected reply %q", turn.Text)
	}
}

func TestTurn_UnknownConversation(t *testing.T) {
	h := newTestHost(time.Hour)
	if _, err := h.Turn(context.Background(), "no-such-id", "hello", ""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	h := newTestHost(time.Hour)
	a, _ := h.Start("")
	b, _ := h.Start("")
	if a == b {
		t.Fatal("conversation ids must be unique")
	}

	if _, err := h.Turn(context.Background(), a, "exit", ""); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	// b is untouched by a's turn.
	lang, err := h.Language(b)
	if err != nil {
		t.Fatalf("Language: %v", err)
	}
	if lang != "english" {
		t.Errorf("unexpected language %q", lang)
	}
}

func TestReset(t *testing.T) {
	h := newTestHost(time.Hour)
	id, _ := h.Start("")
	if _, err := h.Turn(context.Background(), id, "my road is broken", ""); err != nil {
		t.Fatalf("Turn: %v", err)
	}

	turn, err := h.Reset(id)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if turn.Text == "" {
		t.Error("expected a fresh greeting")
	}
	lang, _ := h.Language(id)
	if lang != "english" {
		t.Errorf("reset should restore the default language, got %q", lang)
	}

	if _, err := h.Reset("no-such-id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEnd(t *testing.T) {
	h := newTestHost(time.Hour)
	id, _ := h.Start("")
	h.End(id)
	if _, err := h.Turn(context.Background(), id, "hello", ""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after End, got %v", err)
	}
	h.End("already-gone") // no-op
}

func TestSweepOnce(t *testing.T) {
	h := newTestHost(10 * time.Millisecond)
	stale, _ := h.Start("")
	fresh, _ := h.Start("")

	// Age only the first conversation past the TTL.
	h.mu.Lock()
	h.entries[stale].lastSeen = time.Now().Add(-time.Minute)
	h.mu.Unlock()

	if n := h.sweepOnce(time.Now()); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if _, err := h.Turn(context.Background(), stale, "hello", ""); err != ErrNotFound {
		t.Errorf("stale conversation should be gone, got %v", err)
	}
	if _, err := h.Turn(context.Background(), fresh, "hello", ""); err != nil {
		t.Errorf("fresh conversation should survive, got %v", err)
	}
}

func TestTurnRefreshesLastSeen(t *testing.T) {
	h := newTestHost(50 * time.Millisecond)
	id, _ := h.Start("")

	h.mu.Lock()
	h.entries[id].lastSeen = time.Now().Add(-40 * time.Millisecond)
	h.mu.Unlock()

	if _, err := h.Turn(context.Background(), id, "still here", ""); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if n := h.sweepOnce(time.Now()); n != 0 {
		t.Errorf("active conversation must not be swept, swept %d", n)
	}
}
