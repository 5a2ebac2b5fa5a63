package graph

import (
	"fmt"
	"time"
)

// HitKind tags which store shape a SearchHit came from
type HitKind int

const (
	// HitFact is a fact extracted from an episode, ranked by relevance score
	HitFact HitKind = iota + 1
	// HitTurn is a stored conversation turn, ranked by recency
	HitTurn
	// HitKnowledge is a manually ingested knowledge record, ranked by recency
	HitKnowledge
)

func (k HitKind) String() string {
	switch k {
	case HitFact:
		return "fact"
	case HitTurn:
		return "turn"
	case HitKnowledge:
		return "knowledge"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SearchHit is one raw search result. Which fields are populated depends on Kind:
// HitFact sets Fact and Score, HitTurn and HitKnowledge set Content and Timestamp.
type SearchHit struct {
	Kind      HitKind
	Fact      string
	Content   string
	Score     float64
	Timestamp time.Time
	Origin    string // episode name, session id or knowledge source
}

func (h SearchHit) String() string {
	text := h.Content
	if text == "" {
		text = h.Fact
	}
	return fmt.Sprintf("%s[%s]: %s", h.Kind, h.Origin, text)
}

// Episode is a unit of free text handed to the extracting store
type Episode struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Body          string    `json:"body"`
	Source        string    `json:"source"`
	ReferenceTime time.Time `json:"reference_time"`
}

// ExtractedFact is one sentence of an episode with the entity names it mentions
type ExtractedFact struct {
	Content  string
	Entities []string
}
