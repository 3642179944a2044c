package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/praja-labs/nivaran/internal/i18n"
	"github.com/praja-labs/nivaran/internal/openai"
)

// fakeGateway replays a scripted queue of responses and records every call.
type fakeGateway struct {
	responses []string
	err       error
	calls     []fakeCall
}

type fakeCall struct {
	system   string
	messages []openai.Message
	opts     openai.CompleteOptions
}

func (f *fakeGateway) Complete(_ context.Context, system string, messages []openai.Message, opts openai.CompleteOptions) (string, error) {
	f.calls = append(f.calls, fakeCall{system: system, messages: messages, opts: opts})
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("fake gateway: script exhausted")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func newTestEngine(gw Gateway) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(gw, nil, Options{ChatModel: "test-model", Temperature: 0.7, MaxReplyTokens: 180}, logger)
}

func infraFields() map[string]string {
	return map[string]string{
		"full_name":         "Jane Doe",
		"email":             "jane@example.com",
		"mobile":            "9876543210",
		"address":           "12 MG Road",
		"issue_description": "no water supply",
		"issue_location":    "MG Road, Sector 5",
		"issue_duration":    "one_to_four_weeks",
	}
}

func TestStartSession_GreetingInDefaultLanguage(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	s := NewSession(10)

	turn := e.StartSession(s)
	if turn.Text != i18n.Text("initial_greeting", "english", nil) {
		t.Errorf("unexpected greeting %q", turn.Text)
	}
	if turn.Language != "en" {
		t.Errorf("expected language en, got %q", turn.Language)
	}
	if len(s.History) != 1 || s.History[0].Role != "assistant" {
		t.Errorf("expected greeting in history, got %+v", s.History)
	}
}

func TestProcessTurn_EmptyInput(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	s := NewSession(10)

	turn := e.ProcessTurn(context.Background(), s, "   ", "")
	if turn.Text != i18n.Text("could_not_understand", "english", nil) {
		t.Errorf("unexpected text %q", turn.Text)
	}
	if len(s.History) != 0 {
		t.Errorf("empty input must not touch history, got %d entries", len(s.History))
	}
	if len(gw.calls) != 0 {
		t.Errorf("empty input must not call the gateway, got %d calls", len(gw.calls))
	}
}

func TestProcessTurn_ExitWordsFromAnyStage(t *testing.T) {
	for _, stage := range []Stage{StageUnderstanding, StageCategorizing, StageCollecting, StageConfirming, StageFormFilling, StageSubmitted} {
		for _, word := range []string{"exit", "QUIT", "Stop", "bye", "goodbye"} {
			gw := &fakeGateway{}
			e := newTestEngine(gw)
			s := NewSession(10)
			s.Stage = stage
			s.Category = "infrastructure"
			s.Fields = infraFields()

			turn := e.ProcessTurn(context.Background(), s, word, "")
			if turn.Action == nil || turn.Action.Type != ActionEndConversation {
				t.Fatalf("stage %s word %q: expected end-conversation action, got %+v", stage, word, turn.Action)
			}
			if s.Category != "infrastructure" {
				t.Errorf("stage %s: exit must not clear category", stage)
			}
			if len(s.Fields) != len(infraFields()) {
				t.Errorf("stage %s: exit must not touch fields", stage)
			}
			if len(gw.calls) != 0 {
				t.Errorf("stage %s: exit must not call the gateway", stage)
			}
		}
	}
}

func TestUnderstanding_CategoryMarkerMovesToCategorizing(t *testing.T) {
	gw := &fakeGateway{responses: []string{
		"It sounds like an infrastructure problem with your water supply. GRIEVANCE_CATEGORY:infrastructure",
	}}
	e := newTestEngine(gw)
	s := NewSession(10)

	turn := e.ProcessTurn(context.Background(), s, "there's no water supply in my street for two weeks", "")

	if s.Stage != StageCategorizing {
		t.Errorf("expected stage categorizing, got %s", s.Stage)
	}
	if s.Category != "infrastructure" {
		t.Errorf("expected category infrastructure, got %q", s.Category)
	}
	if strings.Contains(turn.Text, "GRIEVANCE_CATEGORY") {
		t.Errorf("marker must be stripped from displayed text: %q", turn.Text)
	}
	if turn.Action != nil {
		t.Errorf("expected plain chat turn, got action %+v", turn.Action)
	}
}

func TestUnderstanding_NoMarkerStays(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Could you tell me a bit more about the problem?"}}
	e := newTestEngine(gw)
	s := NewSession(10)

	turn := e.ProcessTurn(context.Background(), s, "I have a problem", "")
	if s.Stage != StageUnderstanding {
		t.Errorf("expected to stay in understanding, got %s", s.Stage)
	}
	if s.Category != "" {
		t.Errorf("category must stay empty, got %q", s.Category)
	}
	if turn.Text != "Could you tell me a bit more about the problem?" {
		t.Errorf("unexpected text %q", turn.Text)
	}
}

func TestUnderstanding_BareMarkerGetsConfirmationQuestion(t *testing.T) {
	gw := &fakeGateway{responses: []string{
		"GRIEVANCE_CATEGORY:corruption",
		"That sounds like a corruption complaint. Shall we proceed?",
	}}
	e := newTestEngine(gw)
	s := NewSession(10)

	turn := e.ProcessTurn(context.Background(), s, "an official demanded a bribe", "")
	if s.Stage != StageCategorizing || s.Category != "corruption" {
		t.Fatalf("expected categorizing/corruption, got %s/%q", s.Stage, s.Category)
	}
	if turn.Text != "That sounds like a corruption complaint. Shall we proceed?" {
		t.Errorf("expected confirmation question, got %q", turn.Text)
	}
}

func TestUnderstanding_UnknownCategoryIDStays(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Hmm. GRIEVANCE_CATEGORY:weather"}}
	e := newTestEngine(gw)
	s := NewSession(10)

	e.ProcessTurn(context.Background(), s, "the monsoon is late", "")
	if s.Stage != StageUnderstanding || s.Category != "" {
		t.Errorf("unknown id must not transition, stage=%s category=%q", s.Stage, s.Category)
	}
}

func TestCategorizing_AffirmativeChainsIntoCollecting(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Great! Could you tell me your full name and email?"}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageCategorizing
	s.Category = "infrastructure"

	turn := e.ProcessTurn(context.Background(), s, "yes", "")

	if s.Stage != StageCollecting {
		t.Errorf("expected stage collecting, got %s", s.Stage)
	}
	if turn.Text != "Great! Could you tell me your full name and email?" {
		t.Errorf("expected the collecting-stage response in the same turn, got %q", turn.Text)
	}
	// The single call this turn must be the collecting instruction.
	if len(gw.calls) != 1 || !strings.Contains(gw.calls[0].system, "collect the remaining necessary information") {
		t.Errorf("expected one collecting-stage call, got %d", len(gw.calls))
	}
}

func TestCategorizing_NegativeReturnsToUnderstanding(t *testing.T) {
	gw := &fakeGateway{responses: []string{"I see. What exactly is going wrong?"}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageCategorizing
	s.Category = "infrastructure"
	s.Fields = map[string]string{"full_name": "Jane"}

	turn := e.ProcessTurn(context.Background(), s, "no", "")

	if s.Stage != StageUnderstanding {
		t.Errorf("expected stage understanding, got %s", s.Stage)
	}
	if s.Category != "" || len(s.Fields) != 0 {
		t.Errorf("denial must clear category and fields, got %q %v", s.Category, s.Fields)
	}
	if !strings.Contains(turn.Text, "not the right category") {
		t.Errorf("expected denial acknowledgment, got %q", turn.Text)
	}
	if !strings.Contains(turn.Text, "What exactly is going wrong?") {
		t.Errorf("expected appended understanding response, got %q", turn.Text)
	}
}

func TestCategorizing_AmbiguousImpliesConsent(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Noted. What is your name?"}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageCategorizing
	s.Category = "funds"

	e.ProcessTurn(context.Background(), s, "the scholarship money never arrived", "")
	if s.Stage != StageCollecting {
		t.Errorf("ambiguous reply should move to collecting, got %s", s.Stage)
	}
	if s.Category != "funds" {
		t.Errorf("category must be kept, got %q", s.Category)
	}
}

func TestCollecting_NoMarkerStays(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Thanks. What is your mobile number?"}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageCollecting
	s.Category = "infrastructure"
	s.Fields = map[string]string{"full_name": "Jane Doe"}

	turn := e.ProcessTurn(context.Background(), s, "my name is Jane Doe", "")
	if s.Stage != StageCollecting {
		t.Errorf("expected to stay collecting, got %s", s.Stage)
	}
	if turn.Text != "Thanks. What is your mobile number?" {
		t.Errorf("unexpected text %q", turn.Text)
	}
	if turn.Action != nil {
		t.Errorf("expected no action, got %+v", turn.Action)
	}
}

func TestCollecting_ReadyMarkerHandsOffForm(t *testing.T) {
	gw := &fakeGateway{responses: []string{
		"I think I have everything. READY_TO_CONFIRM",
		`{"full_name":"Jane Doe","email":"jane@example.com","mobile":"9876543210","address":"12 MG Road","issue_description":"no water supply","issue_location":"MG Road, Sector 5","issue_duration":"one_to_four_weeks"}`,
	}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageCollecting
	s.Category = "infrastructure"
	s.AddHistory("user", "everything I told you")

	turn := e.ProcessTurn(context.Background(), s, "that's all the information", "")

	if s.Stage != StageFormFilling {
		t.Fatalf("expected stage form_filling, got %s", s.Stage)
	}
	if turn.Action == nil || turn.Action.Type != ActionLoadForm {
		t.Fatalf("expected load-form action, got %+v", turn.Action)
	}
	if turn.Action.CategoryID != "infrastructure" {
		t.Errorf("expected category infrastructure, got %q", turn.Action.CategoryID)
	}
	if turn.Action.FormRef != "/forms/infrastructure" {
		t.Errorf("unexpected form ref %q", turn.Action.FormRef)
	}
	if turn.Action.Fields["full_name"] != "Jane Doe" {
		t.Errorf("expected extracted fields in payload, got %v", turn.Action.Fields)
	}
	if strings.Contains(turn.Text, "READY_TO_CONFIRM") {
		t.Errorf("marker must be stripped: %q", turn.Text)
	}
	if !strings.Contains(turn.Text, "I think I have everything.") {
		t.Errorf("pre-marker text must be kept: %q", turn.Text)
	}
	// The extraction call runs with JSON output format.
	if len(gw.calls) != 2 || !gw.calls[1].opts.JSONObject {
		t.Errorf("expected second call to be a JSON extraction call")
	}
}

func TestCollecting_ReadyMarkerButMissingCriticalField(t *testing.T) {
	gw := &fakeGateway{responses: []string{
		"READY_TO_CONFIRM",
		`{"full_name":"Jane Doe","email":"","mobile":"","address":"","issue_description":"","issue_location":"","issue_duration":""}`,
	}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageCollecting
	s.Category = "infrastructure"

	turn := e.ProcessTurn(context.Background(), s, "done", "")

	if s.Stage != StageCollecting {
		t.Errorf("expected to remain collecting, got %s", s.Stage)
	}
	if turn.Action != nil {
		t.Errorf("expected no action, got %+v", turn.Action)
	}
	if !strings.Contains(turn.Text, "still need a few more details") {
		t.Errorf("expected still-missing message, got %q", turn.Text)
	}
	// Partial extraction is merged so the next turn asks for the right thing.
	if s.Fields["full_name"] != "Jane Doe" {
		t.Errorf("expected partial extraction merged, got %v", s.Fields)
	}
}

func TestCollecting_GatewayFault(t *testing.T) {
	gw := &fakeGateway{err: errors.New("upstream 503")}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageCollecting
	s.Category = "infrastructure"
	s.Fields = map[string]string{"full_name": "Jane Doe"}

	turn := e.ProcessTurn(context.Background(), s, "my address is 12 MG Road", "")

	if turn.Text != i18n.Text("trouble_processing", "english", nil) {
		t.Errorf("expected trouble-processing message, got %q", turn.Text)
	}
	if s.Stage != StageCollecting {
		t.Errorf("gateway fault must not advance stage, got %s", s.Stage)
	}
	if s.Fields["full_name"] != "Jane Doe" || len(s.Fields) != 1 {
		t.Errorf("gateway fault must not touch fields, got %v", s.Fields)
	}
}

func TestUnderstanding_GatewayFault(t *testing.T) {
	gw := &fakeGateway{err: errors.New("upstream 500")}
	e := newTestEngine(gw)
	s := NewSession(10)

	turn := e.ProcessTurn(context.Background(), s, "my road is broken", "")
	if turn.Text != i18n.Text("technical_difficulty", "english", nil) {
		t.Errorf("expected generic apology, got %q", turn.Text)
	}
	if s.Stage != StageUnderstanding {
		t.Errorf("stage must not advance, got %s", s.Stage)
	}
}

func TestConfirming_ConfirmedMovesToFormFilling(t *testing.T) {
	gw := &fakeGateway{responses: []string{"USER_CONFIRMED_FORM_DATA"}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageConfirming
	s.Category = "infrastructure"
	s.Fields = infraFields()

	turn := e.ProcessTurn(context.Background(), s, "yes that's right", "")

	if s.Stage != StageFormFilling {
		t.Errorf("expected form_filling, got %s", s.Stage)
	}
	if turn.Action == nil || turn.Action.Type != ActionLoadForm {
		t.Errorf("expected load-form action, got %+v", turn.Action)
	}
}

func TestConfirming_WantsUpdateReturnsToCollecting(t *testing.T) {
	gw := &fakeGateway{responses: []string{
		"USER_WANTS_TO_UPDATE_DATA",
		"Sure, what would you like to change?",
	}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageConfirming
	s.Category = "infrastructure"
	s.Fields = infraFields()

	turn := e.ProcessTurn(context.Background(), s, "no the address is wrong", "")

	if s.Stage != StageCollecting {
		t.Errorf("expected collecting, got %s", s.Stage)
	}
	if len(s.Fields) != 0 {
		t.Errorf("fields must be cleared for re-collection, got %v", s.Fields)
	}
	if !strings.Contains(turn.Text, "update your information") {
		t.Errorf("expected lets-update lead-in, got %q", turn.Text)
	}
}

func TestConfirming_NoMarkerIsReprompt(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Sorry, was the address 12 MG Road or 21 MG Road?"}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageConfirming
	s.Category = "infrastructure"
	s.Fields = infraFields()

	turn := e.ProcessTurn(context.Background(), s, "erm", "")
	if s.Stage != StageConfirming {
		t.Errorf("expected to stay confirming, got %s", s.Stage)
	}
	if !strings.Contains(turn.Text, "12 MG Road or 21 MG Road") {
		t.Errorf("expected re-prompt passthrough, got %q", turn.Text)
	}
}

func TestFormFilling_SubmitSignalsSubmitted(t *testing.T) {
	for _, utterance := range []string{"I submitted it", "done", "yes"} {
		e := newTestEngine(&fakeGateway{})
		s := NewSession(10)
		s.Stage = StageFormFilling
		s.Category = "infrastructure"
		s.Fields = infraFields()

		turn := e.ProcessTurn(context.Background(), s, utterance, "")
		if s.Stage != StageSubmitted {
			t.Errorf("%q: expected submitted, got %s", utterance, s.Stage)
		}
		if turn.Action == nil || turn.Action.Type != ActionFormSubmitted {
			t.Errorf("%q: expected form-submitted action, got %+v", utterance, turn.Action)
		}
	}
}

func TestFormFilling_OtherUtteranceKeepsFilling(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	s := NewSession(10)
	s.Stage = StageFormFilling
	s.Category = "infrastructure"
	s.Fields = infraFields()

	turn := e.ProcessTurn(context.Background(), s, "what does issue duration mean", "")
	if s.Stage != StageFormFilling {
		t.Errorf("expected to stay form_filling, got %s", s.Stage)
	}
	if turn.Text != i18n.Text("keep_filling", "english", nil) {
		t.Errorf("unexpected text %q", turn.Text)
	}
}

func TestFormFilling_MissingCategoryIsInternalFault(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	s := NewSession(10)
	s.Stage = StageFormFilling
	s.Category = ""

	turn := e.ProcessTurn(context.Background(), s, "hello?", "")
	if s.Stage != StageUnderstanding {
		t.Errorf("expected reset to understanding, got %s", s.Stage)
	}
	if turn.Text != i18n.Text("internal_form_error", "english", nil) {
		t.Errorf("expected internal-error message, got %q", turn.Text)
	}
	if s.Category != "" || len(s.Fields) != 0 {
		t.Errorf("expected clean session after reset")
	}
}

func TestSubmitted_NegativeEndsConversation(t *testing.T) {
	e := newTestEngine(&fakeGateway{})
	s := NewSession(10)
	s.Stage = StageSubmitted
	s.Category = "infrastructure"
	s.Fields = infraFields()

	turn := e.ProcessTurn(context.Background(), s, "no thanks", "")
	if turn.Action == nil || turn.Action.Type != ActionEndConversation {
		t.Errorf("expected end-conversation action, got %+v", turn.Action)
	}
	if s.Stage != StageSubmitted {
		t.Errorf("stage should be unchanged, got %s", s.Stage)
	}
}

func TestSubmitted_NewTopicRestartsSilently(t *testing.T) {
	gw := &fakeGateway{responses: []string{
		"That sounds like a problem with a government scheme. GRIEVANCE_CATEGORY:funds",
	}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = StageSubmitted
	s.Category = "infrastructure"
	s.Fields = infraFields()

	turn := e.ProcessTurn(context.Background(), s, "actually my scholarship was never paid out", "")

	if s.Category != "funds" {
		t.Errorf("expected new category funds, got %q", s.Category)
	}
	if s.Stage != StageCategorizing {
		t.Errorf("expected categorizing for the new topic, got %s", s.Stage)
	}
	if strings.Contains(turn.Text, "GRIEVANCE_CATEGORY") {
		t.Errorf("marker must be stripped: %q", turn.Text)
	}
}

func TestUnknownStage_ResetsWithApology(t *testing.T) {
	gw := &fakeGateway{responses: []string{"What issue are you facing?"}}
	e := newTestEngine(gw)
	s := NewSession(10)
	s.Stage = Stage("daydreaming")

	turn := e.ProcessTurn(context.Background(), s, "hello", "")
	if s.Stage != StageUnderstanding {
		t.Errorf("expected reset to understanding, got %s", s.Stage)
	}
	if !strings.Contains(turn.Text, "lost my place") {
		t.Errorf("expected lost-track message, got %q", turn.Text)
	}
}

// The category-iff-stage invariant holds along a whole happy path.
func TestCategoryStageInvariant(t *testing.T) {
	check := func(s *Session, step string) {
		t.Helper()
		inCategorySet := s.Stage == StageCategorizing || s.Stage == StageCollecting ||
			s.Stage == StageConfirming || s.Stage == StageFormFilling || s.Stage == StageSubmitted
		if (s.Category != "") != inCategorySet {
			t.Errorf("%s: invariant violated: stage=%s category=%q", step, s.Stage, s.Category)
		}
	}

	gw := &fakeGateway{responses: []string{
		"Sounds like infrastructure. GRIEVANCE_CATEGORY:infrastructure",
		"What's your name?",
		"READY_TO_CONFIRM",
		`{"full_name":"Jane Doe","email":"jane@example.com","mobile":"9876543210","address":"12 MG Road","issue_description":"no water","issue_location":"MG Road","issue_duration":"one_to_four_weeks"}`,
	}}
	e := newTestEngine(gw)
	s := NewSession(10)

	e.StartSession(s)
	check(s, "start")
	e.ProcessTurn(context.Background(), s, "no water in my street", "")
	check(s, "understood")
	e.ProcessTurn(context.Background(), s, "yes", "")
	check(s, "collecting")
	e.ProcessTurn(context.Background(), s, "Jane Doe, jane@example.com, 9876543210, 12 MG Road, no water for two weeks", "")
	check(s, "form handoff")
	e.ProcessTurn(context.Background(), s, "submitted", "")
	check(s, "submitted")
}

func TestHistoryBounded(t *testing.T) {
	gw := &fakeGateway{}
	e := newTestEngine(gw)
	s := NewSession(2) // 2 turns = 4 messages max

	for i := 0; i < 10; i++ {
		gw.responses = append(gw.responses, "tell me more")
	}
	for i := 0; i < 5; i++ {
		e.ProcessTurn(context.Background(), s, "message number "+strings.Repeat("x", i+1), "")
	}
	if len(s.History) != 4 {
		t.Errorf("expected history capped at 4 messages, got %d", len(s.History))
	}
	// Oldest dropped first: the front of the buffer is a recent turn.
	if s.History[len(s.History)-1].Role != "assistant" {
		t.Errorf("expected history to end with assistant turn")
	}
}

func TestLanguageHintSwitchesWorkingLanguage(t *testing.T) {
	gw := &fakeGateway{responses: []string{"ठीक है, और बताइए"}}
	e := newTestEngine(gw)
	s := NewSession(10)

	turn := e.ProcessTurn(context.Background(), s, "मेरी सड़क टूटी हुई है", "hi-IN")
	if s.Language != "hindi" {
		t.Errorf("expected working language hindi, got %q", s.Language)
	}
	if turn.Language != "hi" {
		t.Errorf("expected language code hi, got %q", turn.Language)
	}
}
