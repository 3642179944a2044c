package engine

import "strings"

// Verdict is the outcome of the yes/no classifier.
type Verdict int

const (
	VerdictNeither Verdict = iota
	VerdictAffirmative
	VerdictNegative
)

// Static per-language token sets. The English set is always layered in as
// a fallback; these are never mutated at runtime.
var affirmativeTerms = map[string][]string{
	"english": {"yes", "yeah", "yep", "correct", "right", "sure", "ok", "okay", "alright", "perfect", "sounds good", "looks good", "that's right", "proceed", "continue", "affirmative", "indeed", "certainly", "please do", "go ahead", "absolutely", "fine", "good", "great", "positive"},
	"hindi":   {"हाँ", "जी हाँ", "ठीक है", "सही है", "आगे बढ़ें", "जारी रखें", "हाँ जी", "सही", "हाँजी", "जी", "बेशक", "ज़रूर", "अच्छा", "बहुत अच्छा", "सकारात्मक"},
	"tamil":   {"ஆம்", "சரி", "சரியானது", "தொடரவும்", "நிச்சயமாக", "கண்டிப்பாக", "நல்லது"},
	"marathi": {"होय", "बरोबर", "ठीक आहे", "पुढे जा", "नक्कीच", "नक्की", "चालेल", "उत्तम"},
	"kannada": {"ಹೌದು", "ಸರಿ", "ಸರಿಯಾಗಿದೆ", "ಮುಂದುವರಿಸಿ", "ಖಂಡಿತ", "ಖಂಡಿತವಾಗಿ", "ಒಳ್ಳೆಯದು"},
}

var negativeTerms = map[string][]string{
	"english": {"no", "nope", "not", "incorrect", "wrong", "don't", "do not", "stop", "cancel", "negative", "not right", "that's not it", "don t", "never", "bad", "false"},
	"hindi":   {"नहीं", "गलत", "सही नहीं", "मत करो", "रुको", "रद्द करें", "नहीं जी", "ना", "नहींजी", "कभी नहीं", "खराब", "असत्य"},
	"tamil":   {"இல்லை", "தவறு", "சரியல்ல", "வேண்டாம்", "நிறுத்து", "ஒருபோதும் இல்லை", "மோசமான"},
	"marathi": {"नाही", "चुकीचे", "बरोबर नाही", "थांबा", "रद्द करा", "कधीच नाही", "वाईट"},
	"kannada": {"ಇಲ್ಲ", "ತಪ್ಪು", "ಸರಿಯಿಲ್ಲ", "ಬೇಡ", "ನಿಲ್ಲಿಸಿ", "ರದ್ದುಮಾಡಿ", "ಎಂದಿಗೂ ಇಲ್ಲ", "ಕೆಟ್ಟದು"},
}

// Classify decides whether an utterance is an affirmative or negative
// reply in the given language. It is deterministic and never calls the
// model. When terms from both sets match (e.g. a negative phrase that
// begins with an affirmative word) the longer match wins; exact ties go
// affirmative.
func Classify(text, language string) Verdict {
	normalized := normalizeUtterance(text)
	if normalized == "" {
		return VerdictNeither
	}
	aff := longestMatch(normalized, tokensFor(affirmativeTerms, language))
	neg := longestMatch(normalized, tokensFor(negativeTerms, language))
	switch {
	case aff == 0 && neg == 0:
		return VerdictNeither
	case neg > aff:
		return VerdictNegative
	default:
		return VerdictAffirmative
	}
}

func normalizeUtterance(text string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(text)), ".,!?;")
}

func tokensFor(terms map[string][]string, language string) []string {
	tokens := terms[strings.ToLower(language)]
	if strings.ToLower(language) != "english" {
		tokens = append(append([]string{}, tokens...), terms["english"]...)
	}
	return tokens
}

// longestMatch returns the byte length of the longest token matching the
// utterance exactly or as a word-boundary prefix, or 0 for no match.
func longestMatch(normalized string, tokens []string) int {
	best := 0
	for _, term := range tokens {
		if normalized == term || strings.HasPrefix(normalized, term+" ") {
			if len(term) > best {
				best = len(term)
			}
		}
	}
	return best
}
