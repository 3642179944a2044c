// Package lang resolves the working language of a session from user text.
package lang

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/praja-labs/nivaran/internal/i18n"
	"github.com/praja-labs/nivaran/internal/openai"
)

// Completer is the single model capability the detector needs.
type Completer interface {
	Complete(ctx context.Context, system string, messages []openai.Message, opts openai.CompleteOptions) (string, error)
}

type Detector struct {
	llm    Completer
	model  string
	logger *slog.Logger
}

func NewDetector(llm Completer, model string, logger *slog.Logger) *Detector {
	return &Detector{llm: llm, model: model, logger: logger}
}

// Detect returns the language name of text. Short or inconclusive input
// keeps the prior; a model answer is adopted only when it names a
// supported language; on model failure a script-range heuristic decides.
func (d *Detector) Detect(ctx context.Context, text, prior string) string {
	prior = strings.ToLower(prior)
	if !i18n.Supported(prior) {
		prior = i18n.DefaultLanguage
	}
	if len(strings.Fields(text)) < 2 {
		return prior
	}

	if d.llm != nil {
		names := make([]string, 0, len(i18n.Languages))
		for name := range i18n.Languages {
			names = append(names, name)
		}
		prompt := fmt.Sprintf(
			"What language is the following text in? Respond with ONLY ONE of these language names: %s.\n\nText: %q",
			strings.Join(names, ", "), text)

		zero := 0.0
		raw, err := d.llm.Complete(ctx, "", []openai.Message{{Role: "user", Content: prompt}},
			openai.CompleteOptions{Model: d.model, Temperature: &zero, MaxTokens: 10})
		if err == nil {
			detected := strings.ToLower(strings.TrimSpace(raw))
			if i18n.Supported(detected) {
				return detected
			}
			d.logger.Debug("model named unsupported language", "detected", detected)
			return prior
		}
		d.logger.Warn("language detection call failed", "error", err)
	}

	if heuristic := detectByScript(text, prior); heuristic != "" {
		return heuristic
	}
	return prior
}

// detectByScript picks a language from Unicode script ranges. Only
// non-Latin scripts give a usable signal; Devanagari is ambiguous between
// hindi and marathi, so it never overrides either of those.
func detectByScript(text, prior string) string {
	for _, r := range text {
		switch {
		case r >= 0x0900 && r <= 0x097F: // Devanagari
			if prior != "hindi" && prior != "marathi" {
				return "hindi"
			}
			return ""
		case r >= 0x0B80 && r <= 0x0BFF: // Tamil
			if prior != "tamil" {
				return "tamil"
			}
			return ""
		case r >= 0x0C80 && r <= 0x0CFF: // Kannada
			if prior != "kannada" {
				return "kannada"
			}
			return ""
		}
	}
	return ""
}
