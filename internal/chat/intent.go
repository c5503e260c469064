package chat

import "regexp"

// IntentPredicate reports whether a user message looks like it should have
// triggered a knowledge-base lookup. It is pluggable so the heuristic can
// be swapped or tested independently of the orchestration flow.
type IntentPredicate func(userText string) bool

var knowledgeIntentPattern = regexp.MustCompile(
	`(?i)\b(?:knowledge\s*base|products?|inventory|catalog(?:ue)?|stock|items?|merchandise)\b`)

// DefaultIntentPredicate matches mentions of products, inventory, the
// catalog, or the knowledge base itself.
func DefaultIntentPredicate(userText string) bool {
	return knowledgeIntentPattern.MatchString(userText)
}
