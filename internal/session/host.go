// Package session keeps the per-conversation state between HTTP turns.
// Each conversation gets a generated id; entries idle past the TTL are
// swept so abandoned browser tabs do not pin memory.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praja-labs/nivaran/internal/engine"
)

// ErrNotFound is returned when a conversation id is unknown, either never
// issued or already swept.
var ErrNotFound = errors.New("session: conversation not found")

type entry struct {
	mu       sync.Mutex
	sess     *engine.Session
	lastSeen time.Time
}

// Host owns all live conversations and serializes turns per conversation.
type Host struct {
	engine *engine.Engine

	mu      sync.Mutex
	entries map[string]*entry

	maxHistoryTurns int
	ttl             time.Duration
	logger          *slog.Logger
}

func NewHost(eng *engine.Engine, maxHistoryTurns int, ttl time.Duration, logger *slog.Logger) *Host {
	return &Host{
		engine:          eng,
		entries:         make(map[string]*entry),
		maxHistoryTurns: maxHistoryTurns,
		ttl:             ttl,
		logger:          logger,
	}
}

// Start creates a conversation, returning its id and the opening turn.
// A language hint from the client seeds the working language for the
// greeting but the engine may still switch languages later.
func (h *Host) Start(langHint string) (string, engine.Turn) {
	id := uuid.NewString()
	sess := engine.NewSession(h.maxHistoryTurns)
	turn := h.engine.StartSession(sess)

	h.mu.Lock()
	h.entries[id] = &entry{sess: sess, lastSeen: time.Now()}
	h.mu.Unlock()

	h.logger.Info("conversation started", "conversation_id", id, "lang_hint", langHint)
	return id, turn
}

// Turn runs one user utterance through the conversation's engine. Turns on
// the same conversation are serialized; different conversations proceed in
// parallel.
func (h *Host) Turn(ctx context.Context, id, text, langHint string) (engine.Turn, error) {
	ent, ok := h.lookup(id)
	if !ok {
		return engine.Turn{}, ErrNotFound
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	turn := h.engine.ProcessTurn(ctx, ent.sess, text, langHint)

	h.mu.Lock()
	ent.lastSeen = time.Now()
	h.mu.Unlock()
	return turn, nil
}

// Reset restarts a conversation in place, keeping its id, and returns the
// fresh greeting turn.
func (h *Host) Reset(id string) (engine.Turn, error) {
	ent, ok := h.lookup(id)
	if !ok {
		return engine.Turn{}, ErrNotFound
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	turn := h.engine.StartSession(ent.sess)

	h.mu.Lock()
	ent.lastSeen = time.Now()
	h.mu.Unlock()
	return turn, nil
}

// Language reports a conversation's current working language.
func (h *Host) Language(id string) (string, error) {
	ent, ok := h.lookup(id)
	if !ok {
		return "", ErrNotFound
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.sess.Language, nil
}

// End removes a conversation. Unknown ids are a no-op.
func (h *Host) End(id string) {
	h.mu.Lock()
	delete(h.entries, id)
	h.mu.Unlock()
}

// Len reports the number of live conversations.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *Host) lookup(id string) (*entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ent, ok := h.entries[id]
	return ent, ok
}

// Sweep runs the idle-session reaper until ctx is cancelled. Interval is
// derived from the TTL so short TTLs are honoured promptly in tests.
func (h *Host) Sweep(ctx context.Context) {
	interval := h.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.sweepOnce(time.Now()); n > 0 {
				h.logger.Info("swept idle conversations", "count", n)
			}
		}
	}
}

func (h *Host) sweepOnce(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	swept := 0
	for id, ent := range h.entries {
		if now.Sub(ent.lastSeen) > h.ttl {
			delete(h.entries, id)
			swept++
		}
	}
	return swept
}
