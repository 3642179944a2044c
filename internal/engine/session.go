package engine

import (
	"github.com/praja-labs/nivaran/internal/i18n"
	"github.com/praja-labs/nivaran/internal/openai"
)

// Stage is the conversation phase a session is in.
type Stage string

const (
	StageUnderstanding Stage = "understanding"
	StageCategorizing  Stage = "categorizing"
	StageCollecting    Stage = "collecting"
	StageConfirming    Stage = "confirming"
	StageFormFilling   Stage = "form_filling"
	StageSubmitted     Stage = "submitted"
)

// Session holds the mutable conversation state for one end user. It is
// mutated only by the Engine; the session host must serialize turns for
// the same session.
type Session struct {
	Stage    Stage
	Language string
	Category string
	Fields   map[string]string
	History  []openai.Message

	maxHistoryTurns int
}

func NewSession(maxHistoryTurns int) *Session {
	s := &Session{maxHistoryTurns: maxHistoryTurns}
	s.Reset()
	return s
}

// Reset restores the session to its initial state.
func (s *Session) Reset() {
	s.Stage = StageUnderstanding
	s.Language = i18n.DefaultLanguage
	s.Category = ""
	s.Fields = map[string]string{}
	s.History = nil
}

// AddHistory appends a turn, discarding the oldest entries beyond the
// bound so the model context stays capped.
func (s *Session) AddHistory(role, content string) {
	s.History = append(s.History, openai.Message{Role: role, Content: content})
	max := s.maxHistoryTurns * 2
	if max > 0 && len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// lastUserMessage returns the most recent user turn, or "".
func (s *Session) lastUserMessage() string {
	return s.lastByRole("user")
}

// lastAssistantMessage returns the most recent assistant turn, or "".
func (s *Session) lastAssistantMessage() string {
	return s.lastByRole("assistant")
}

func (s *Session) lastByRole(role string) string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == role {
			return s.History[i].Content
		}
	}
	return ""
}
