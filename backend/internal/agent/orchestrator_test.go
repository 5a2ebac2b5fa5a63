package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cose-ai/backend/internal/adapter"
	"cose-ai/backend/internal/graph"
	"cose-ai/backend/internal/state"
	apperrors "cose-ai/backend/pkg/errors"
)

var testPersona = state.Persona{
	Name:        "COSE AI",
	Domain:      "Revenue Cycle Management (RCM)",
	DomainShort: "RCM",
	Purpose:     "You help healthcare providers optimize their revenue cycles through AI-powered solutions.",
}

// Mock implementations for testing

// mockStore keeps records in memory and searches them the way the literal store does
type mockStore struct {
	mu        sync.Mutex
	turns     []state.ConversationTurn
	knowledge []state.KnowledgeItem

	searchCalls int
	searchErr   error
	recordErr   error
	addErr      error
}

func (m *mockStore) Strategy() string { return "literal" }

func (m *mockStore) Search(ctx context.Context, query string, limit int) ([]graph.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	patterns := graph.LiteralPatterns(query)
	matches := func(content string) bool {
		lower := strings.ToLower(content)
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}

	var hits []graph.SearchHit
	for _, t := range m.turns {
		if matches(t.CompositeContent()) {
			hits = append(hits, graph.SearchHit{Kind: graph.HitTurn, Content: t.CompositeContent(), Timestamp: t.Timestamp, Origin: t.SessionID})
		}
	}
	for _, k := range m.knowledge {
		if matches(k.Content) {
			hits = append(hits, graph.SearchHit{Kind: graph.HitKnowledge, Content: k.Content, Timestamp: k.Timestamp, Origin: k.Source})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Timestamp.After(hits[j].Timestamp) })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *mockStore) RecordTurn(ctx context.Context, turn state.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.turns = append(m.turns, turn)
	return nil
}

func (m *mockStore) AddKnowledge(ctx context.Context, item state.KnowledgeItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.knowledge = append(m.knowledge, item)
	return nil
}

type mockCompleter struct {
	completeFunc func(ctx context.Context, systemPrompt, userMsg string) (string, error)
	lastPrompt   string
	calls        int
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	m.calls++
	m.lastPrompt = systemPrompt
	if m.completeFunc != nil {
		return m.completeFunc(ctx, systemPrompt, userMsg)
	}
	return "Here is what I know.", nil
}

func newTestOrchestrator(store graph.KnowledgeStore, llm Completer) *Orchestrator {
	return NewOrchestrator(store, llm, Options{
		Persona:      testPersona,
		ContextLimit: 5,
		StoreTimeout: time.Second,
	})
}

func TestOrchestrator_RunTurn_DemoModeFirstCall(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	llm := adapter.NewLLMAdapter(adapter.Options{Model: "gpt-4", MaxTokens: 1024, Persona: testPersona})

	orch := newTestOrchestrator(store, llm)
	result, err := orch.RunTurn(ctx, "s1", "How do I reduce claim denials?")

	require.NoError(t, err)
	assert.Contains(t, result.Response, "How do I reduce claim denials?")
	assert.Equal(t, "I'm COSE AI, your RCM assistant. (Note: API key not configured - using demo mode). You asked: How do I reduce claim denials?", result.Response)
	assert.Empty(t, result.ContextUsed)
	assert.NotNil(t, result.ContextUsed)

	require.Len(t, store.turns, 1)
	assert.Equal(t, "s1", store.turns[0].SessionID)
	assert.Equal(t, result.Response, store.turns[0].AssistantResponse)
}

func TestOrchestrator_RunTurn_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	llm := &mockCompleter{}
	orch := newTestOrchestrator(store, llm)

	_, err := orch.RunTurn(ctx, "s1", "What is timely filing for Aetna?")
	require.NoError(t, err)

	result, err := orch.RunTurn(ctx, "s1", "Remind me about Aetna")
	require.NoError(t, err)

	require.Len(t, result.ContextUsed, 1)
	assert.Equal(t, "User: What is timely filing for Aetna?\nAssistant: Here is what I know.", result.ContextUsed[0].Content)
	assert.NotNil(t, result.ContextUsed[0].Timestamp)
	assert.Contains(t, llm.lastPrompt, "- User: What is timely filing for Aetna?")
	assert.NotContains(t, llm.lastPrompt, NoContextMarker)
}

func TestOrchestrator_AddKnowledge_SurfacesInChat(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	orch := newTestOrchestrator(store, &mockCompleter{})

	require.NoError(t, orch.AddKnowledge(ctx, "Denial code CO-50 means...", "manual"))

	result, err := orch.RunTurn(ctx, "s2", "What does CO-50 mean?")
	require.NoError(t, err)

	require.Len(t, result.ContextUsed, 1)
	assert.Equal(t, "Denial code CO-50 means...", result.ContextUsed[0].Content)
}

func TestOrchestrator_AddKnowledge_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	orch := newTestOrchestrator(store, &mockCompleter{})

	require.NoError(t, orch.AddKnowledge(ctx, "  Prior auth is required for MRI.  ", ""))
	require.Len(t, store.knowledge, 1)
	assert.Equal(t, "manual", store.knowledge[0].Source)
	assert.Equal(t, "Prior auth is required for MRI.", store.knowledge[0].Content)

	err := orch.AddKnowledge(ctx, "   ", "manual")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	store.addErr = errors.New("disk full")
	err = orch.AddKnowledge(ctx, "x", "manual")
	var writeErr *apperrors.ErrWriteFault
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "knowledge", writeErr.Record)
}

func TestOrchestrator_Retrieve_LimitZero(t *testing.T) {
	store := &mockStore{knowledge: []state.KnowledgeItem{state.NewKnowledgeItem("claim denials", "manual")}}
	orch := newTestOrchestrator(store, &mockCompleter{})

	snippets, err := orch.Retrieve(context.Background(), "claim", 0)

	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, 0, store.searchCalls)
}

func TestOrchestrator_Retrieve_RespectsLimitAndRecency(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &mockStore{}
	for i := 0; i < 4; i++ {
		item := state.NewKnowledgeItem(fmt.Sprintf("claim note %d", i), "manual")
		item.Timestamp = base.Add(time.Duration(i) * time.Minute)
		store.knowledge = append(store.knowledge, item)
	}
	orch := newTestOrchestrator(store, &mockCompleter{})

	snippets, err := orch.Retrieve(context.Background(), "claim", 2)

	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "claim note 3", snippets[0].Content)
	assert.Equal(t, "claim note 2", snippets[1].Content)
}

func TestOrchestrator_RetrievalQueryFaultDegrades(t *testing.T) {
	store := &mockStore{searchErr: errors.New("syntax error in query")}
	llm := &mockCompleter{}
	orch := newTestOrchestrator(store, llm)

	result, err := orch.RunTurn(context.Background(), "s1", "hello there")

	require.NoError(t, err)
	assert.Empty(t, result.ContextUsed)
	assert.Contains(t, llm.lastPrompt, NoContextMarker)
	assert.Len(t, store.turns, 1)
}

func TestOrchestrator_StoreUnavailableFails(t *testing.T) {
	store := &mockStore{searchErr: fmt.Errorf("search: %w: dial tcp", graph.ErrStoreUnavailable)}
	llm := &mockCompleter{}
	orch := newTestOrchestrator(store, llm)

	_, err := orch.RunTurn(context.Background(), "s1", "hello there")

	var retrievalErr *apperrors.ErrRetrievalFault
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "literal", retrievalErr.Strategy)
	assert.Equal(t, 0, llm.calls)
}

func TestOrchestrator_CompletionFailureSkipsWrite(t *testing.T) {
	store := &mockStore{}
	llm := &mockCompleter{completeFunc: func(ctx context.Context, systemPrompt, userMsg string) (string, error) {
		return "", errors.New("connection reset")
	}}
	orch := newTestOrchestrator(store, llm)

	_, err := orch.RunTurn(context.Background(), "s1", "hello there")

	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeCompletion))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, store.turns)
}

func TestOrchestrator_WriteFailureFailsTurn(t *testing.T) {
	store := &mockStore{recordErr: errors.New("transaction rolled back")}
	orch := newTestOrchestrator(store, &mockCompleter{})

	result, err := orch.RunTurn(context.Background(), "s1", "hello there")

	assert.Nil(t, result)
	var writeErr *apperrors.ErrWriteFault
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "turn", writeErr.Record)
}

func TestOrchestrator_RunTurn_Validation(t *testing.T) {
	store := &mockStore{}
	llm := &mockCompleter{}
	orch := newTestOrchestrator(store, llm)
	ctx := context.Background()

	_, err := orch.RunTurn(ctx, "s1", "   ")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = orch.RunTurn(ctx, "s1", strings.Repeat("a", 1001))
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = orch.RunTurn(ctx, "s1", strings.Repeat("é", 1000))
	assert.NoError(t, err)

	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, 1, store.searchCalls)
}

func TestOrchestrator_RunTurn_DefaultSession(t *testing.T) {
	store := &mockStore{}
	orch := newTestOrchestrator(store, &mockCompleter{})

	_, err := orch.RunTurn(context.Background(), "", "hello there")

	require.NoError(t, err)
	require.Len(t, store.turns, 1)
	assert.Equal(t, "default", store.turns[0].SessionID)
}

func TestOrchestrator_RunTurn_KeepsMessageAsSent(t *testing.T) {
	store := &mockStore{}
	llm := adapter.NewLLMAdapter(adapter.Options{Model: "gpt-4", Persona: testPersona})
	orch := newTestOrchestrator(store, llm)

	result, err := orch.RunTurn(context.Background(), "s1", "  indented question\n")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Response, "You asked:   indented question\n"))
	require.Len(t, store.turns, 1)
	assert.Equal(t, "  indented question\n", store.turns[0].UserMessage)
}

func TestOrchestrator_AcronymKnowledgeSurfacesInChat(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	orch := newTestOrchestrator(store, &mockCompleter{})

	require.NoError(t, orch.AddKnowledge(ctx, "AR days measure how fast claims are paid.", "manual"))

	result, err := orch.RunTurn(ctx, "s3", "What is AR?")
	require.NoError(t, err)

	require.Len(t, result.ContextUsed, 1)
	assert.Equal(t, "AR days measure how fast claims are paid.", result.ContextUsed[0].Content)
}
