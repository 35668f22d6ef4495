// =============================================================================
// classify.go - keyword classifier for uncategorized sources
// =============================================================================
package pipeline

import "strings"

// ClassificationRule is one ordered keyword-to-category mapping. Rules are
// evaluated in slice order and the first match wins, so broader keywords
// must come after the specific phrases they would otherwise shadow.
type ClassificationRule struct {
	Keyword  string
	Category string
}

// Classify returns the category of the first rule whose keyword occurs in
// the lowercased title+description, or "" when nothing matches. Callers
// drop records that classify to "".
func Classify(rules []ClassificationRule, title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, r := range rules {
		if strings.Contains(text, r.Keyword) {
			return r.Category
		}
	}
	return ""
}
