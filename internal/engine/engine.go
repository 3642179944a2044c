// Package engine implements the conversation state machine that walks a
// citizen from a free-text grievance to a prefilled form: understanding →
// categorizing → collecting → form_filling → submitted, with a narrow
// confirming side-stage for single-point clarifications.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/praja-labs/nivaran/internal/catalog"
	"github.com/praja-labs/nivaran/internal/i18n"
	"github.com/praja-labs/nivaran/internal/openai"
)

// Gateway is the reasoning capability the engine drives. Only the returned
// text and its embedded markers are interpreted.
type Gateway interface {
	Complete(ctx context.Context, system string, messages []openai.Message, opts openai.CompleteOptions) (string, error)
}

// LanguageResolver picks the working language for a turn.
type LanguageResolver interface {
	Detect(ctx context.Context, text, prior string) string
}

type Options struct {
	ChatModel      string
	Temperature    float64
	MaxReplyTokens int
}

// Engine drives one session's turns. It is stateless apart from the
// Session it is handed; one Engine can serve many sessions.
type Engine struct {
	llm      Gateway
	resolver LanguageResolver
	opts     Options
	logger   *slog.Logger
}

func New(llm Gateway, resolver LanguageResolver, opts Options, logger *slog.Logger) *Engine {
	return &Engine{llm: llm, resolver: resolver, opts: opts, logger: logger}
}

type ActionType string

const (
	ActionEndConversation ActionType = "END_CONVERSATION"
	ActionLoadForm        ActionType = "LOAD_FORM"
	ActionFormSubmitted   ActionType = "FORM_SUBMITTED"
)

// Action is the structured side-channel of a turn, consumed by the
// session host's rendering layer.
type Action struct {
	Type       ActionType        `json:"type"`
	CategoryID string            `json:"category_id,omitempty"`
	FormRef    string            `json:"form_ref,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Turn is the structured result of processing one user utterance.
type Turn struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Action   *Action `json:"action,omitempty"`
}

var exitWords = map[string]bool{
	"exit": true, "quit": true, "stop": true, "bye": true, "goodbye": true,
}

// StartSession resets the session and returns the initial greeting in the
// default language.
func (e *Engine) StartSession(s *Session) Turn {
	s.Reset()
	greeting := i18n.Text("initial_greeting", s.Language, nil)
	s.AddHistory("assistant", greeting)
	return Turn{Text: greeting, Language: i18n.Code(s.Language)}
}

// ProcessTurn runs one user utterance through the stage machine and
// returns a well-formed turn result. Model faults surface as localized
// apologies, never as errors.
func (e *Engine) ProcessTurn(ctx context.Context, s *Session, text, langHint string) Turn {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{Text: i18n.Text("could_not_understand", s.Language, nil), Language: i18n.Code(s.Language)}
	}

	s.AddHistory("user", text)
	e.resolveLanguage(ctx, s, text, langHint)

	if exitWords[strings.ToLower(text)] {
		farewell := i18n.Text("farewell", s.Language, nil)
		s.AddHistory("assistant", farewell)
		return Turn{Text: farewell, Language: i18n.Code(s.Language), Action: &Action{Type: ActionEndConversation}}
	}

	var (
		respText string
		action   *Action
	)
	switch s.Stage {
	case StageUnderstanding:
		respText, action = e.handleUnderstanding(ctx, s)
	case StageCategorizing:
		respText, action = e.handleCategorizing(ctx, s, text)
	case StageCollecting:
		respText, action = e.handleCollecting(ctx, s)
	case StageConfirming:
		respText, action = e.handleConfirming(ctx, s, text)
	case StageFormFilling:
		respText, action = e.handleFormFilling(s, text)
	case StageSubmitted:
		respText, action = e.handleSubmitted(ctx, s, text)
	default:
		respText, action = e.handleUnknownStage(ctx, s, text)
	}

	s.AddHistory("assistant", respText)
	return Turn{Text: respText, Language: i18n.Code(s.Language), Action: action}
}

// resolveLanguage updates the session's working language from the client
// hint and, when available, the detector's verdict on the utterance.
func (e *Engine) resolveLanguage(ctx context.Context, s *Session, text, langHint string) {
	prior := s.Language
	if langHint != "" {
		prior = i18n.FromBrowserTag(langHint)
	}
	resolved := prior
	if e.resolver != nil {
		resolved = e.resolver.Detect(ctx, text, prior)
	}
	if i18n.Supported(resolved) && resolved != s.Language {
		e.logger.Debug("working language switched", "from", s.Language, "to", resolved)
		s.Language = resolved
	}
}

func (e *Engine) handleUnderstanding(ctx context.Context, s *Session) (string, *Action) {
	resp, err := e.complete(ctx, s, understandingPrompt(s.Language), e.opts.Temperature)
	if err != nil {
		e.logger.Error("understanding call failed", "error", err)
		return i18n.Text("technical_difficulty", s.Language, nil), nil
	}

	id, cleaned, found := extractCategoryMarker(resp)
	if !found {
		return resp, nil
	}
	if _, ok := catalog.Lookup(id); !ok {
		e.logger.Warn("model named unknown category", "category", id)
		return resp, nil
	}

	s.Category = id
	s.Fields = map[string]string{}
	s.Stage = StageCategorizing
	e.logger.Info("category identified", "category", id)

	// A bare marker leaves nothing to show the user; ask the model for the
	// category confirmation question instead.
	if cleaned == "" {
		confirm, err := e.complete(ctx, s, categorizingPrompt(s.Language, id), e.opts.Temperature)
		if err != nil {
			e.logger.Error("categorizing call failed", "error", err)
			return i18n.Text("technical_difficulty", s.Language, nil), nil
		}
		return confirm, nil
	}
	return cleaned, nil
}

func (e *Engine) handleCategorizing(ctx context.Context, s *Session, userText string) (string, *Action) {
	switch Classify(userText, s.Language) {
	case VerdictAffirmative:
		s.Stage = StageCollecting
		return e.handleCollecting(ctx, s)
	case VerdictNegative:
		denied := i18n.Text("category_denied", s.Language, map[string]string{"category": s.Category})
		s.Category = ""
		s.Fields = map[string]string{}
		s.Stage = StageUnderstanding
		e.logger.Info("category denied, back to understanding")
		text, _ := e.handleUnderstanding(ctx, s)
		return joinText(denied, text), nil
	default:
		// Documented policy: an ambiguous reply counts as implicit consent
		// so the conversation does not stall on an uncertain classification.
		s.Stage = StageCollecting
		return e.handleCollecting(ctx, s)
	}
}

func (e *Engine) handleCollecting(ctx context.Context, s *Session) (string, *Action) {
	prompt := collectingPrompt(s.Language, s.Category, s.Fields, s.lastUserMessage())
	resp, err := e.complete(ctx, s, prompt, e.opts.Temperature)
	if err != nil {
		e.logger.Error("collecting call failed", "error", err)
		return i18n.Text("trouble_processing", s.Language, nil), nil
	}

	cleaned, found := stripMarker(resp, markerReady)
	if !found {
		return resp, nil
	}

	if e.finalizeAndCheckReady(ctx, s) {
		s.Stage = StageFormFilling
		action, ok := e.loadFormAction(s)
		if !ok {
			return e.failInternal(s), nil
		}
		msg := i18n.Text("preparing_form", s.Language, map[string]string{"category": readable(s.Category)})
		return joinText(cleaned, msg), action
	}

	// The model judged collection complete but critical fields are still
	// empty; fields now reflect the partial extraction, so the next
	// collecting turn asks for what is actually missing.
	msg := i18n.Text("still_missing", s.Language, map[string]string{"category": readable(s.Category)})
	return joinText(cleaned, msg), nil
}

func (e *Engine) handleConfirming(ctx context.Context, s *Session, userText string) (string, *Action) {
	prompt := confirmingPrompt(s.Language, s.Category, s.lastAssistantMessage(), userText)
	resp, err := e.complete(ctx, s, prompt, 0.2)
	if err != nil {
		e.logger.Error("confirming call failed", "error", err)
		return i18n.Text("technical_difficulty", s.Language, nil), nil
	}

	if _, found := stripMarker(resp, markerConfirmed); found {
		s.Stage = StageFormFilling
		action, ok := e.loadFormAction(s)
		if !ok {
			return e.failInternal(s), nil
		}
		return i18n.Text("preparing_form", s.Language, map[string]string{"category": readable(s.Category)}), action
	}

	if _, found := stripMarker(resp, markerWantsUpdate); found {
		s.Fields = map[string]string{}
		s.Stage = StageCollecting
		lead := i18n.Text("lets_update", s.Language, nil)
		text, _ := e.handleCollecting(ctx, s)
		return joinText(lead, text), nil
	}

	// No marker: the model is re-prompting the user for the same point.
	return resp, nil
}

func (e *Engine) handleFormFilling(s *Session, userText string) (string, *Action) {
	if _, ok := catalog.Lookup(s.Category); !ok || len(s.Fields) == 0 {
		e.logger.Error("form_filling with inconsistent session", "category", s.Category, "fields", len(s.Fields))
		return e.failInternal(s), nil
	}

	lower := strings.ToLower(userText)
	if strings.Contains(lower, "submit") || strings.Contains(lower, "done") || Classify(userText, s.Language) == VerdictAffirmative {
		s.Stage = StageSubmitted
		return i18n.Text("form_submitted", s.Language, nil), &Action{Type: ActionFormSubmitted}
	}
	return i18n.Text("keep_filling", s.Language, nil), nil
}

func (e *Engine) handleSubmitted(ctx context.Context, s *Session, userText string) (string, *Action) {
	if Classify(userText, s.Language) == VerdictNegative {
		return i18n.Text("farewell", s.Language, nil), &Action{Type: ActionEndConversation}
	}

	// New topic: restart silently around this utterance without an extra
	// turn of friction.
	language := s.Language
	s.Reset()
	s.Language = language
	s.AddHistory("user", userText)
	return e.handleUnderstanding(ctx, s)
}

// handleUnknownStage is a safety net for a stage value the dispatch above
// does not know. Unreachable if the machine is complete.
func (e *Engine) handleUnknownStage(ctx context.Context, s *Session, userText string) (string, *Action) {
	e.logger.Error("unhandled conversation stage", "stage", string(s.Stage))
	language := s.Language
	s.Reset()
	s.Language = language
	s.AddHistory("user", userText)
	lead := i18n.Text("lost_track", s.Language, nil)
	text, _ := e.handleUnderstanding(ctx, s)
	return joinText(lead, text), nil
}

// loadFormAction builds the form handoff payload. Returns false when the
// session is in no state to hand off (missing category or empty fields).
func (e *Engine) loadFormAction(s *Session) (*Action, bool) {
	if _, ok := catalog.Lookup(s.Category); !ok || len(s.Fields) == 0 {
		return nil, false
	}
	fields := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	return &Action{
		Type:       ActionLoadForm,
		CategoryID: s.Category,
		FormRef:    catalog.FormRef(s.Category),
		Fields:     fields,
	}, true
}

// failInternal handles an internal consistency fault: continuing in a
// known-bad state is worse than restarting, so the session is reset.
func (e *Engine) failInternal(s *Session) string {
	msg := i18n.Text("internal_form_error", s.Language, nil)
	s.Reset()
	return msg
}

func (e *Engine) complete(ctx context.Context, s *Session, system string, temperature float64) (string, error) {
	return e.llm.Complete(ctx, system, s.History, openai.CompleteOptions{
		Model:       e.opts.ChatModel,
		Temperature: &temperature,
		MaxTokens:   e.opts.MaxReplyTokens,
	})
}

func joinText(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
