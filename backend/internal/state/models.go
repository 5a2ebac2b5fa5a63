package state

import (
	"fmt"
	"strings"
	"time"
)

// ConversationTurn is one chat exchange as persisted in the knowledge store.
// It is immutable once built.
type ConversationTurn struct {
	SessionID         string    `json:"session_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewConversationTurn stamps a turn with the current UTC time
func NewConversationTurn(sessionID, userMessage, response string) ConversationTurn {
	return ConversationTurn{
		SessionID:         sessionID,
		UserMessage:       userMessage,
		AssistantResponse: response,
		Timestamp:         time.Now().UTC(),
	}
}

// CompositeContent is the searchable text of the turn
func (t ConversationTurn) CompositeContent() string {
	return fmt.Sprintf("User: %s\nAssistant: %s", t.UserMessage, t.AssistantResponse)
}

// EpisodeBody is the free text handed to an extracting store
func (t ConversationTurn) EpisodeBody() string {
	return fmt.Sprintf("User asked: %s\nAssistant responded: %s", t.UserMessage, t.AssistantResponse)
}

// Validate checks if the turn can be stored
func (t ConversationTurn) Validate() error {
	if strings.TrimSpace(t.SessionID) == "" {
		return ErrInvalidRecord{Field: "session_id", Reason: "cannot be empty"}
	}
	if strings.TrimSpace(t.UserMessage) == "" {
		return ErrInvalidRecord{Field: "user_message", Reason: "cannot be empty"}
	}
	return nil
}

// KnowledgeItem is manually ingested reference content, independent of any session
type KnowledgeItem struct {
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultKnowledgeSource labels items ingested without an explicit source
const DefaultKnowledgeSource = "manual"

// NewKnowledgeItem stamps an item with the current UTC time, defaulting the source
func NewKnowledgeItem(content, source string) KnowledgeItem {
	if strings.TrimSpace(source) == "" {
		source = DefaultKnowledgeSource
	}
	return KnowledgeItem{
		Content:   content,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks if the item can be stored
func (k KnowledgeItem) Validate() error {
	if strings.TrimSpace(k.Content) == "" {
		return ErrInvalidRecord{Field: "content", Reason: "cannot be empty"}
	}
	return nil
}

// ContextSnippet is a retrieved excerpt used to ground one response.
// Exactly one of Score or Timestamp is set, depending on the retrieval strategy.
type ContextSnippet struct {
	Content   string     `json:"content"`
	Score     *float64   `json:"score,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ScoredSnippet builds a snippet ranked by relevance
func ScoredSnippet(content string, score float64) ContextSnippet {
	return ContextSnippet{Content: content, Score: &score}
}

// DatedSnippet builds a snippet ranked by recency
func DatedSnippet(content string, ts time.Time) ContextSnippet {
	return ContextSnippet{Content: content, Timestamp: &ts}
}

// Errors

type ErrInvalidRecord struct {
	Field  string
	Reason string
}

func (e ErrInvalidRecord) Error() string {
	return fmt.Sprintf("invalid record: %s - %s", e.Field, e.Reason)
}

// Persona names the assistant in prompts and in demo-mode replies
type Persona struct {
	Name        string // "COSE AI"
	Domain      string // "Revenue Cycle Management (RCM)"
	DomainShort string // "RCM"
	Purpose     string // one line restating what the assistant is for
}
