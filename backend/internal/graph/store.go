package graph

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cose-ai/backend/internal/constants"
	"cose-ai/backend/internal/state"
	"cose-ai/backend/pkg/config"
)

// EpisodeStore is the extraction-backed strategy: turns and knowledge become episodes,
// searches return ranked facts.
type EpisodeStore struct {
	repo *Repository
}

// LiteralStore is the literal-match strategy: turns and knowledge are stored as plain nodes,
// searches are substring matches ordered by recency.
type LiteralStore struct {
	repo *Repository
}

// NewEpisodeStore creates the extraction-backed store
func NewEpisodeStore(repo *Repository) *EpisodeStore {
	return &EpisodeStore{repo: repo}
}

// NewLiteralStore creates the literal-match store
func NewLiteralStore(repo *Repository) *LiteralStore {
	return &LiteralStore{repo: repo}
}

// Strategy names the retrieval strategy
func (s *EpisodeStore) Strategy() string { return config.StrategyEpisode }

// Search returns facts related to the query
func (s *EpisodeStore) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.repo.SearchFacts(ctx, query, limit)
}

// RecordTurn stores the turn as a chat episode
func (s *EpisodeStore) RecordTurn(ctx context.Context, turn state.ConversationTurn) error {
	return s.repo.AddEpisode(ctx, Episode{
		Name:          episodeName(turn.Timestamp, constants.ChatEpisodePrefix, turn.SessionID),
		Body:          turn.EpisodeBody(),
		Source:        constants.ChatEpisodeSource,
		ReferenceTime: turn.Timestamp,
	})
}

// AddKnowledge stores the item as a knowledge episode
func (s *EpisodeStore) AddKnowledge(ctx context.Context, item state.KnowledgeItem) error {
	return s.repo.AddEpisode(ctx, Episode{
		Name:          episodeName(item.Timestamp, constants.KnowledgePrefix),
		Body:          item.Content,
		Source:        item.Source,
		ReferenceTime: item.Timestamp,
	})
}

// episodeName joins parts with the timestamp and a short random suffix.
// Episode names are unique in the graph and two writes can share a clock tick.
func episodeName(ts time.Time, parts ...string) string {
	name := make([]string, 0, len(parts)+2)
	name = append(name, parts...)
	name = append(name, strconv.FormatInt(ts.UnixNano(), 10), uuid.NewString()[:8])
	return strings.Join(name, "_")
}

// Strategy names the retrieval strategy
func (s *LiteralStore) Strategy() string { return config.StrategyLiteral }

// Search returns turns and knowledge containing the query
func (s *LiteralStore) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.repo.SearchLiteral(ctx, query, limit)
}

// RecordTurn stores the turn as a ConversationTurn node
func (s *LiteralStore) RecordTurn(ctx context.Context, turn state.ConversationTurn) error {
	return s.repo.RecordTurn(ctx, turn)
}

// AddKnowledge stores the item as a Knowledge node
func (s *LiteralStore) AddKnowledge(ctx context.Context, item state.KnowledgeItem) error {
	return s.repo.CreateKnowledge(ctx, item)
}

// KnowledgeStore is what both strategies provide
type KnowledgeStore interface {
	Strategy() string
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	RecordTurn(ctx context.Context, turn state.ConversationTurn) error
	AddKnowledge(ctx context.Context, item state.KnowledgeItem) error
}

// NewStore picks the store for a configured strategy name
func NewStore(repo *Repository, strategy string) (KnowledgeStore, error) {
	switch strategy {
	case config.StrategyEpisode:
		return NewEpisodeStore(repo), nil
	case config.StrategyLiteral:
		return NewLiteralStore(repo), nil
	default:
		return nil, fmt.Errorf("unknown retrieval strategy %q", strategy)
	}
}
