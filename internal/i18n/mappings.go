package i18n

import "strings"

// DefaultLanguage is the fallback for every lookup in this package.
const DefaultLanguage = "english"

// Languages maps supported language names to ISO 639-1 codes.
var Languages = map[string]string{
	"english": "en",
	"hindi":   "hi",
	"tamil":   "ta",
	"marathi": "mr",
	"kannada": "kn",
}

// browserTags maps browser language tags to internal language names.
var browserTags = map[string]string{
	"en-us": "english", "en-gb": "english", "en-au": "english",
	"en-ca": "english", "en-in": "english", "en": "english",
	"hi-in": "hindi", "hi": "hindi",
	"ta-in": "tamil", "ta-lk": "tamil", "ta": "tamil",
	"mr-in": "marathi", "mr": "marathi",
	"kn-in": "kannada", "kn": "kannada",
}

// voices maps language codes to TTS voice names.
var voices = map[string]string{
	"en": "nova",
	"hi": "onyx",
	"ta": "shimmer",
	"mr": "alloy",
	"kn": "echo",
}

var ttsInstructions = map[string]string{
	"en": "Speak clearly in a helpful and neutral English tone.",
	"hi": "Speak clearly in a helpful and neutral Hindi tone.",
	"ta": "Speak clearly in a helpful and neutral Tamil tone.",
	"mr": "Speak clearly in a helpful and neutral Marathi tone.",
	"kn": "Speak clearly in a helpful and neutral Kannada tone.",
}

// Supported reports whether a language name is one the assistant speaks.
func Supported(name string) bool {
	_, ok := Languages[strings.ToLower(name)]
	return ok
}

// Code returns the ISO code for a language name, defaulting to English.
func Code(name string) string {
	if code, ok := Languages[strings.ToLower(name)]; ok {
		return code
	}
	return "en"
}

// FromBrowserTag maps a browser language tag (e.g. "en-US") to an internal
// language name, defaulting to English.
func FromBrowserTag(tag string) string {
	if tag == "" {
		return DefaultLanguage
	}
	full := strings.ToLower(tag)
	if name, ok := browserTags[full]; ok {
		return name
	}
	primary := strings.SplitN(full, "-", 2)[0]
	if name, ok := browserTags[primary]; ok {
		return name
	}
	for name, code := range Languages {
		if primary == code {
			return name
		}
	}
	return DefaultLanguage
}

// VoiceFor returns the TTS voice for a language code.
func VoiceFor(code string) string {
	if v, ok := voices[strings.ToLower(code)]; ok {
		return v
	}
	return "nova"
}

// TTSInstructionFor returns the per-language synthesis instruction.
func TTSInstructionFor(code string) string {
	if ins, ok := ttsInstructions[strings.ToLower(code)]; ok {
		return ins
	}
	return "Speak naturally and clearly."
}
