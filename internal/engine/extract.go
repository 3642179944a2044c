package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/praja-labs/nivaran/internal/catalog"
	"github.com/praja-labs/nivaran/internal/openai"
)

// finalizeAndCheckReady runs the readiness protocol: extract best-guess
// values for every required field from the full transcript, merge them
// into the session, and report whether all critical fields are populated.
// Idempotent given the same history and prior fields.
func (e *Engine) finalizeAndCheckReady(ctx context.Context, s *Session) bool {
	extracted := e.extractFields(ctx, s)

	for key, value := range extracted {
		if strings.TrimSpace(value) != "" {
			s.Fields[key] = value
		} else if _, ok := s.Fields[key]; !ok {
			s.Fields[key] = ""
		}
	}

	ready := isReady(s.Category, s.Fields)
	e.logger.Info("readiness check", "category", s.Category, "ready", ready)
	return ready
}

// isReady reports whether every critical field is non-empty. A field is
// critical unless it is the conditional field and its governing field's
// value does not make it required. A category with zero required fields
// is trivially ready.
func isReady(categoryID string, fields map[string]string) bool {
	cat, ok := catalog.Lookup(categoryID)
	if !ok {
		return false
	}
	for _, field := range cat.RequiredFields {
		if field == catalog.ConditionalField &&
			strings.TrimSpace(fields[catalog.GoverningField]) != catalog.GoverningValue {
			continue
		}
		if strings.TrimSpace(fields[field]) == "" {
			return false
		}
	}
	return true
}

// extractFields asks the model for a flat field→value mapping over the
// whole conversation. Extraction failure never propagates: a malformed
// response degrades to all-empty values and readiness simply stays false.
func (e *Engine) extractFields(ctx context.Context, s *Session) map[string]string {
	required := catalog.RequiredFields(s.Category)
	if len(required) == 0 {
		return map[string]string{}
	}

	allEmpty := func() map[string]string {
		out := make(map[string]string, len(required))
		for _, f := range required {
			out[f] = ""
		}
		return out
	}

	transcript := make([]string, 0, len(s.History))
	for _, m := range s.History {
		transcript = append(transcript, m.Role+": "+m.Content)
	}

	temperature := 0.1
	raw, err := e.llm.Complete(ctx, "",
		[]openai.Message{{Role: "user", Content: extractionPrompt(s.Language, s.Category, transcript)}},
		openai.CompleteOptions{
			Model:       e.opts.ChatModel,
			Temperature: &temperature,
			MaxTokens:   1024,
			JSONObject:  true,
		})
	if err != nil {
		e.logger.Warn("field extraction call failed", "error", err)
		return allEmpty()
	}

	parsed, ok := parseFieldMapping(raw)
	if !ok {
		e.logger.Warn("field extraction returned unparseable output", "raw_len", len(raw))
		return allEmpty()
	}

	out := make(map[string]string, len(required))
	for _, f := range required {
		out[f] = parsed[f]
	}
	return out
}

// parseFieldMapping parses the model output as a flat string mapping. A
// strict parse is tried first; on failure the first balanced {...} block
// in the text is tried. Non-string values are stringified rather than
// rejected.
func parseFieldMapping(raw string) (map[string]string, bool) {
	if m, ok := unmarshalMapping(raw); ok {
		return m, true
	}
	if block := firstJSONBlock(raw); block != "" {
		if m, ok := unmarshalMapping(block); ok {
			return m, true
		}
	}
	return nil, false
}

func unmarshalMapping(s string) (map[string]string, bool) {
	var loose map[string]any
	if err := json.Unmarshal([]byte(s), &loose); err != nil {
		return nil, false
	}
	out := make(map[string]string, len(loose))
	for k, v := range loose {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		case float64:
			out[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out, true
}

// firstJSONBlock returns the first balanced { ... } block in s, honouring
// string literals and escapes, or "" if none closes.
func firstJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
