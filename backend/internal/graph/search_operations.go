package graph

import (
	"cose-ai/backend/internal/state"
)

// ============================================================================
// Search Result Mapping
// ============================================================================

// SnippetFromHit maps one search hit to a context snippet.
// Facts carry their score; turns and knowledge carry their timestamp.
// Unknown kinds, and facts with no text, fall back to the hit's string form.
func SnippetFromHit(hit SearchHit) state.ContextSnippet {
	switch hit.Kind {
	case HitFact:
		content := hit.Fact
		if content == "" {
			content = hit.String()
		}
		return state.ScoredSnippet(content, hit.Score)
	case HitTurn, HitKnowledge:
		return state.DatedSnippet(hit.Content, hit.Timestamp)
	default:
		return state.ContextSnippet{Content: hit.String()}
	}
}

// SnippetsFromHits maps hits in order, dropping ones that end up with no text
func SnippetsFromHits(hits []SearchHit) []state.ContextSnippet {
	snippets := make([]state.ContextSnippet, 0, len(hits))
	for _, hit := range hits {
		snippet := SnippetFromHit(hit)
		if snippet.Content == "" {
			continue
		}
		snippets = append(snippets, snippet)
	}
	return snippets
}
