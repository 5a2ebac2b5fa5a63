package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"cose-ai/backend/pkg/logger"
)

// ErrStoreUnavailable wraps driver errors that mean the database cannot be reached at all,
// as opposed to a single query failing.
var ErrStoreUnavailable = errors.New("knowledge store unavailable")

// Repository handles all Neo4j database operations.
// The driver is pooled and safe for concurrent use; every operation opens its own session.
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewRepository creates a new graph repository. An empty database selects the server default.
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Named("graph"),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// VerifyConnectivity checks that the server is reachable with the configured credentials
func (r *Repository) VerifyConnectivity(ctx context.Context) error {
	if err := r.driver.VerifyConnectivity(ctx); err != nil {
		return wrapDriverError("verify connectivity", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE CONSTRAINT episode_name IF NOT EXISTS FOR (e:Episode) REQUIRE e.name IS UNIQUE`,
	`CREATE CONSTRAINT entity_name IF NOT EXISTS FOR (n:Entity) REQUIRE n.name IS UNIQUE`,
	`CREATE INDEX episode_reference_time IF NOT EXISTS FOR (e:Episode) ON (e.reference_time)`,
	`CREATE INDEX turn_timestamp IF NOT EXISTS FOR (t:ConversationTurn) ON (t.timestamp)`,
	`CREATE INDEX turn_session IF NOT EXISTS FOR (t:ConversationTurn) ON (t.session_id)`,
	`CREATE INDEX knowledge_timestamp IF NOT EXISTS FOR (k:Knowledge) ON (k.timestamp)`,
}

// EnsureSchema creates the constraints and indexes both retrieval strategies rely on.
// Every statement is idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return wrapDriverError("ensure schema", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return wrapDriverError("ensure schema", err)
		}
	}

	r.logger.Info("Schema ensured", zap.Int("statements", len(schemaStatements)))
	return nil
}

func (r *Repository) readSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
}

func (r *Repository) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
}

// wrapDriverError tags connectivity failures with ErrStoreUnavailable
func wrapDriverError(op string, err error) error {
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
