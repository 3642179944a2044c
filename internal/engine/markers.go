package engine

import (
	"regexp"
	"strings"
)

// Markers are the tokens the model is instructed to embed in free text to
// signal a decision back to the engine. They are parsed with a defined
// grammar (token name plus optional payload) rather than substring search,
// so a marker word inside quoted prose does not trip the state machine.
const (
	markerCategoryToken = "GRIEVANCE_CATEGORY"
	markerReady         = "READY_TO_CONFIRM"
	markerConfirmed     = "USER_CONFIRMED_FORM_DATA"
	markerWantsUpdate   = "USER_WANTS_TO_UPDATE_DATA"
)

var (
	categoryMarkerRe = regexp.MustCompile(`GRIEVANCE_CATEGORY:\s*([\w-]+)`)
	spaceCollapseRe  = regexp.MustCompile(`[ \t]{2,}`)
)

// extractCategoryMarker finds a GRIEVANCE_CATEGORY:<id> marker, returning
// the lowercased id and the text with the marker removed.
func extractCategoryMarker(text string) (id, cleaned string, found bool) {
	m := categoryMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return "", text, false
	}
	id = strings.ToLower(strings.TrimSpace(m[1]))
	cleaned = tidy(strings.Replace(text, m[0], "", 1))
	return id, cleaned, true
}

// stripMarker removes a bare marker token if it appears as a standalone
// word, returning the cleaned text and whether it was present.
func stripMarker(text, marker string) (cleaned string, found bool) {
	re := regexp.MustCompile(`(^|\W)` + regexp.QuoteMeta(marker) + `(\W|$)`)
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false
	}
	// Drop only the marker itself, keeping surrounding prose.
	start := loc[3] // end of the leading boundary group
	cleaned = tidy(text[:start] + text[start+len(marker):])
	return cleaned, true
}

func tidy(s string) string {
	return strings.TrimSpace(spaceCollapseRe.ReplaceAllString(s, " "))
}
