package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"cose-ai/backend/internal/adapter"
	"cose-ai/backend/internal/agent"
	"cose-ai/backend/internal/graph"
	"cose-ai/backend/internal/state"
	"cose-ai/backend/pkg/config"
)

// ServiceManager owns the long-lived collaborators of one process:
// the Neo4j driver, the knowledge store, the completion gateway and the orchestrator.
type ServiceManager struct {
	logger       *zap.Logger
	cfg          *config.Config
	driver       neo4j.DriverWithContext
	repo         *graph.Repository
	store        graph.KnowledgeStore
	llm          *adapter.LLMAdapter
	orchestrator *agent.Orchestrator

	closeOnce sync.Once
	closeErr  error
}

// NewServiceManager creates the driver and every component built on it.
// It does not contact the database; call Start for that.
func NewServiceManager(logger *zap.Logger, cfg *config.Config) (*ServiceManager, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	repo := graph.NewRepository(driver, cfg.Neo4jDatabase)
	store, err := graph.NewStore(repo, cfg.RetrievalStrategy)
	if err != nil {
		_ = driver.Close(context.Background())
		return nil, err
	}

	persona := state.Persona{
		Name:        cfg.AssistantName,
		Domain:      cfg.AssistantDomain,
		DomainShort: cfg.AssistantDomainShort,
		Purpose:     cfg.AssistantPurpose,
	}

	llm := adapter.NewLLMAdapter(adapter.Options{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.ModelID,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.LLMTimeout,
		Persona:   persona,
	})

	orch := agent.NewOrchestrator(store, llm, agent.Options{
		Persona:      persona,
		ContextLimit: cfg.ContextLimit,
		StoreTimeout: cfg.StoreTimeout,
	})

	return &ServiceManager{
		logger:       logger,
		cfg:          cfg,
		driver:       driver,
		repo:         repo,
		store:        store,
		llm:          llm,
		orchestrator: orch,
	}, nil
}

// Start verifies connectivity and bootstraps the schema.
// An unreachable database is logged, not fatal: chat requests then fail with a retrieval fault
// until it comes back.
func (sm *ServiceManager) Start(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sm.cfg.StoreTimeout)
	defer cancel()

	if err := sm.repo.VerifyConnectivity(ctx); err != nil {
		sm.logger.Warn("Neo4j is not reachable, continuing", zap.String("uri", sm.cfg.Neo4jURI), zap.Error(err))
		return
	}
	sm.logger.Info("Connected to Neo4j", zap.String("uri", sm.cfg.Neo4jURI))

	if err := sm.repo.EnsureSchema(ctx); err != nil {
		sm.logger.Warn("Failed to ensure schema", zap.Error(err))
	}

	sm.logger.Info("Services ready",
		zap.String("strategy", sm.store.Strategy()),
		zap.String("model", sm.llm.Model()),
		zap.Bool("demo_mode", sm.llm.DemoMode()),
	)
}

// EnsureSchema runs the schema bootstrap and reports its error
func (sm *ServiceManager) EnsureSchema(ctx context.Context) error {
	if err := sm.repo.VerifyConnectivity(ctx); err != nil {
		return err
	}
	return sm.repo.EnsureSchema(ctx)
}

// Orchestrator returns the chat pipeline
func (sm *ServiceManager) Orchestrator() *agent.Orchestrator {
	return sm.orchestrator
}

// Close releases the driver. Safe to call more than once.
func (sm *ServiceManager) Close() error {
	sm.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sm.closeErr = sm.repo.Close(ctx)
		if sm.closeErr != nil {
			sm.logger.Warn("Error closing Neo4j driver", zap.Error(sm.closeErr))
			return
		}
		sm.logger.Info("Neo4j driver closed")
	})
	return sm.closeErr
}
