package agent

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"cose-ai/backend/internal/constants"
	"cose-ai/backend/internal/graph"
	"cose-ai/backend/internal/state"
	apperrors "cose-ai/backend/pkg/errors"
	"cose-ai/backend/pkg/logger"
)

// Completer turns a system prompt and a user message into a reply
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// Options tunes the orchestrator
type Options struct {
	Persona      state.Persona
	ContextLimit int
	StoreTimeout time.Duration // bounds each store call; zero means unbounded
}

// Orchestrator runs the retrieve, compose, complete, record pipeline for one chat turn.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	store  graph.KnowledgeStore
	llm    Completer
	opts   Options
	logger *zap.Logger
}

// NewOrchestrator creates a new agent orchestrator
func NewOrchestrator(store graph.KnowledgeStore, llm Completer, opts Options) *Orchestrator {
	return &Orchestrator{
		store:  store,
		llm:    llm,
		opts:   opts,
		logger: logger.Named("agent"),
	}
}

// TurnResult represents the result of a single chat turn
type TurnResult struct {
	Response    string
	ContextUsed []state.ContextSnippet
}

// RunTurn answers one message and records the exchange.
// The steps run strictly in sequence; a failed write fails the turn.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	// Trimmed only for validation; the message is completed and stored as sent.
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, apperrors.NewValidationFailed("message", "is required")
	}
	if utf8.RuneCountInString(trimmed) > constants.MaxMessageLength {
		return nil, apperrors.NewValidationFailed("message", "is too long")
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = constants.DefaultSessionID
	}

	o.logger.Debug("Starting chat turn",
		zap.String("session_id", sessionID),
		zap.String("strategy", o.store.Strategy()),
	)

	// 1. Retrieve
	snippets, err := o.Retrieve(ctx, message, o.opts.ContextLimit)
	if err != nil {
		return nil, err
	}

	// 2. Compose
	systemPrompt := BuildSystemPrompt(o.opts.Persona, snippets)

	// 3. Complete
	response, err := o.llm.Complete(ctx, systemPrompt, message)
	if err != nil {
		if apperrors.KindOf(err) == "" {
			err = apperrors.NewCompletionFailed("", err)
		}
		o.logger.Error("Completion failed",
			zap.String("session_id", sessionID),
			zap.String("kind", string(apperrors.ErrorTypeCompletion)),
			zap.Error(err),
		)
		return nil, err
	}

	// 4. Record
	turn := state.NewConversationTurn(sessionID, message, response)
	if err := o.record(ctx, turn); err != nil {
		o.logger.Error("Failed to record turn, response discarded",
			zap.String("session_id", sessionID),
			zap.String("kind", string(apperrors.ErrorTypeWrite)),
			zap.String("response", response),
			zap.Error(err),
		)
		return nil, err
	}

	return &TurnResult{
		Response:    response,
		ContextUsed: snippets,
	}, nil
}

// Retrieve returns at most limit snippets relevant to query.
// Query failures degrade to no context; only an unreachable store is an error.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, limit int) ([]state.ContextSnippet, error) {
	if limit <= 0 {
		return []state.ContextSnippet{}, nil
	}

	ctx, cancel := o.storeContext(ctx)
	defer cancel()

	hits, err := o.store.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, graph.ErrStoreUnavailable) {
			return nil, apperrors.NewRetrievalFault(o.store.Strategy(), err)
		}
		o.logger.Warn("Context retrieval failed, continuing without context",
			zap.String("strategy", o.store.Strategy()),
			zap.String("kind", string(apperrors.ErrorTypeRetrieval)),
			zap.Error(err),
		)
		return []state.ContextSnippet{}, nil
	}

	snippets := graph.SnippetsFromHits(hits)
	if len(snippets) > limit {
		snippets = snippets[:limit]
	}
	return snippets, nil
}

// AddKnowledge ingests a knowledge item outside of any chat turn
func (o *Orchestrator) AddKnowledge(ctx context.Context, content, source string) error {
	item := state.NewKnowledgeItem(strings.TrimSpace(content), strings.TrimSpace(source))
	if err := item.Validate(); err != nil {
		return apperrors.NewValidationFailed("content", "is required")
	}

	ctx, cancel := o.storeContext(ctx)
	defer cancel()

	if err := o.store.AddKnowledge(ctx, item); err != nil {
		return apperrors.NewWriteFault(constants.RecordKnowledge, err)
	}

	o.logger.Info("Knowledge added",
		zap.String("source", item.Source),
		zap.String("strategy", o.store.Strategy()),
	)
	return nil
}

func (o *Orchestrator) record(ctx context.Context, turn state.ConversationTurn) error {
	if err := turn.Validate(); err != nil {
		return apperrors.NewWriteFault(constants.RecordTurn, err)
	}

	ctx, cancel := o.storeContext(ctx)
	defer cancel()

	if err := o.store.RecordTurn(ctx, turn); err != nil {
		return apperrors.NewWriteFault(constants.RecordTurn, err)
	}
	return nil
}

func (o *Orchestrator) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.StoreTimeout > 0 {
		return context.WithTimeout(ctx, o.opts.StoreTimeout)
	}
	return context.WithCancel(ctx)
}
