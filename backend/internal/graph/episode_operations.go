package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Episode Operations (extraction-backed strategy)
// ============================================================================

// AddEpisode stores an episode together with the facts and entities extracted from its body.
// Everything is written in one transaction.
func (r *Repository) AddEpisode(ctx context.Context, ep Episode) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	if ep.ID == "" {
		ep.ID = uuid.New().String()
	}
	if ep.ReferenceTime.IsZero() {
		ep.ReferenceTime = time.Now()
	}

	extracted := ExtractFacts(ep.Body)
	facts := make([]map[string]interface{}, 0, len(extracted))
	for _, f := range extracted {
		facts = append(facts, map[string]interface{}{
			"id":       uuid.New().String(),
			"content":  f.Content,
			"entities": f.Entities,
		})
	}

	query := `
		CREATE (e:Episode {
			id: $id,
			name: $name,
			content: $content,
			source_description: $source,
			reference_time: datetime($referenceTime),
			created_at: datetime()
		})
		WITH e
		UNWIND $facts AS fact
		CREATE (f:Fact {
			id: fact.id,
			content: fact.content,
			created_at: datetime($referenceTime)
		})
		CREATE (e)-[:HAS_FACT]->(f)
		WITH f, fact
		UNWIND fact.entities AS entityName
		MERGE (n:Entity {name: entityName})
		ON CREATE SET n.created_at = datetime($referenceTime)
		MERGE (f)-[:MENTIONS]->(n)
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, map[string]interface{}{
			"id":            ep.ID,
			"name":          ep.Name,
			"content":       ep.Body,
			"source":        ep.Source,
			"referenceTime": ep.ReferenceTime.UTC().Format(time.RFC3339Nano),
			"facts":         facts,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return wrapDriverError("add episode", err)
	}

	r.logger.Debug("Episode added",
		zap.String("name", ep.Name),
		zap.String("source", ep.Source),
		zap.Int("facts", len(facts)),
	)
	return nil
}

// SearchFacts returns facts sharing entities with the query, best match first.
// The score is the fraction of query terms a fact mentions.
func (r *Repository) SearchFacts(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	terms := ExtractTerms(query)
	if limit < 1 || len(terms) == 0 {
		return []SearchHit{}, nil
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	searchQuery := `
		MATCH (f:Fact)-[:MENTIONS]->(n:Entity)
		WHERE n.name IN $terms
		WITH f, count(DISTINCT n) AS hits
		MATCH (e:Episode)-[:HAS_FACT]->(f)
		RETURN f.content AS fact,
		       e.name AS episode,
		       e.reference_time AS reference_time,
		       toFloat(hits) / $termCount AS score
		ORDER BY score DESC, reference_time DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, searchQuery, map[string]interface{}{
		"terms":     terms,
		"termCount": float64(len(terms)),
		"limit":     limit,
	})
	if err != nil {
		return nil, wrapDriverError("search facts", err)
	}

	hits := []SearchHit{}
	for result.Next(ctx) {
		record := result.Record()
		hits = append(hits, SearchHit{
			Kind:      HitFact,
			Fact:      getStringFromRecord(record, "fact"),
			Score:     getFloat64FromRecord(record, "score"),
			Timestamp: getTimeFromRecord(record, "reference_time"),
			Origin:    getStringFromRecord(record, "episode"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, wrapDriverError("search facts", err)
	}

	return hits, nil
}
