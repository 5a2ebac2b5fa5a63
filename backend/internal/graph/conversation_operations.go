package graph

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"cose-ai/backend/internal/state"
)

// ============================================================================
// Conversation Operations (literal-match strategy)
// ============================================================================

// RecordTurn writes a conversation turn as a single node with discrete fields
func (r *Repository) RecordTurn(ctx context.Context, turn state.ConversationTurn) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		CREATE (t:ConversationTurn {
			id: $id,
			session_id: $sessionID,
			user_message: $userMessage,
			ai_response: $aiResponse,
			content: $content,
			timestamp: datetime($timestamp)
		})
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, map[string]interface{}{
			"id":          uuid.New().String(),
			"sessionID":   turn.SessionID,
			"userMessage": turn.UserMessage,
			"aiResponse":  turn.AssistantResponse,
			"content":     turn.CompositeContent(),
			"timestamp":   turn.Timestamp.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return wrapDriverError("record turn", err)
	}

	r.logger.Debug("Conversation turn recorded", zap.String("session_id", turn.SessionID))
	return nil
}

// CreateKnowledge writes a manually ingested knowledge record
func (r *Repository) CreateKnowledge(ctx context.Context, item state.KnowledgeItem) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		CREATE (k:Knowledge {
			id: $id,
			content: $content,
			source: $source,
			timestamp: datetime($timestamp)
		})
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, map[string]interface{}{
			"id":        uuid.New().String(),
			"content":   item.Content,
			"source":    item.Source,
			"timestamp": item.Timestamp.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return wrapDriverError("create knowledge", err)
	}

	r.logger.Debug("Knowledge recorded", zap.String("source", item.Source))
	return nil
}

// SearchLiteral matches turns and knowledge records whose content contains the lowercased
// query, or any of its terms, most recent first.
func (r *Repository) SearchLiteral(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	patterns := LiteralPatterns(query)
	if limit < 1 || len(patterns) == 0 {
		return []SearchHit{}, nil
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	searchQuery := `
		CALL {
			MATCH (t:ConversationTurn)
			WHERE any(p IN $patterns WHERE toLower(t.content) CONTAINS p)
			RETURN t.content AS content, t.timestamp AS timestamp, 'turn' AS kind, t.session_id AS origin
			UNION ALL
			MATCH (k:Knowledge)
			WHERE any(p IN $patterns WHERE toLower(k.content) CONTAINS p)
			RETURN k.content AS content, k.timestamp AS timestamp, 'knowledge' AS kind, k.source AS origin
		}
		RETURN content, timestamp, kind, origin
		ORDER BY timestamp DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, searchQuery, map[string]interface{}{
		"patterns": patterns,
		"limit":    limit,
	})
	if err != nil {
		return nil, wrapDriverError("search conversations", err)
	}

	hits := []SearchHit{}
	for result.Next(ctx) {
		record := result.Record()
		kind := HitTurn
		if getStringFromRecord(record, "kind") == "knowledge" {
			kind = HitKnowledge
		}
		hits = append(hits, SearchHit{
			Kind:      kind,
			Content:   getStringFromRecord(record, "content"),
			Timestamp: getTimeFromRecord(record, "timestamp"),
			Origin:    getStringFromRecord(record, "origin"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, wrapDriverError("search conversations", err)
	}

	return hits, nil
}

// LiteralPatterns is the whole lowercased query followed by its terms.
// A blank query yields no patterns, so it matches nothing.
func LiteralPatterns(query string) []string {
	whole := strings.ToLower(strings.TrimSpace(query))
	if whole == "" {
		return nil
	}
	patterns := []string{whole}
	for _, term := range ExtractTerms(query) {
		if term != whole {
			patterns = append(patterns, term)
		}
	}
	return patterns
}
