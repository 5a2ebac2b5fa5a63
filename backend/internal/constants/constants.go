package constants

// Service identity reported by GET /
const (
	ServiceStatus  = "COSE AI Backend Running with Neo4j"
	ServiceVersion = "2.0.0"
)

// Request constants
const (
	// DefaultSessionID is used when a chat request carries no session
	DefaultSessionID = "default"
	// MaxMessageLength is the longest accepted chat message, in characters
	MaxMessageLength = 1000
)

// Source labels written with episodes
const (
	ChatEpisodeSource = "COSE AI Chat Interface"
	ChatEpisodePrefix = "chat"
	KnowledgePrefix   = "knowledge"
)

// Record kinds used in write faults and logs
const (
	RecordTurn      = "turn"
	RecordKnowledge = "knowledge"
)
