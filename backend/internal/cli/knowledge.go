package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"cose-ai/backend/pkg/logger"
)

var (
	seedFile    string
	concurrency int
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Load knowledge items from a YAML file",
	Long: `Load knowledge items from a YAML file into the configured retrieval store.

The file holds a list of items:

  - content: "Denial code CO-50 means the payer deems the service not medically necessary."
    source: payer-guide
  - content: "Aetna timely filing limit is 90 days from the date of service."

A missing source defaults to "manual". Items are written in parallel, bounded by --concurrency.

Examples:
  seed knowledge --file kb.yaml
  seed knowledge --file kb.yaml --concurrency 8`,
	Args: cobra.NoArgs,
	RunE: runKnowledge,
}

func init() {
	rootCmd.AddCommand(knowledgeCmd)
	knowledgeCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file with knowledge items")
	knowledgeCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum number of parallel writes")
	_ = knowledgeCmd.MarkFlagRequired("file")
}

// SeedItem is one entry of a knowledge seed file
type SeedItem struct {
	Content string `yaml:"content"`
	Source  string `yaml:"source"`
}

// KnowledgeAdder is the write path items are ingested through
type KnowledgeAdder interface {
	AddKnowledge(ctx context.Context, content, source string) error
}

// ParseSeedFile decodes a YAML list of items, rejecting entries with no content
func ParseSeedFile(data []byte) ([]SeedItem, error) {
	var items []SeedItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, item := range items {
		if strings.TrimSpace(item.Content) == "" {
			return nil, fmt.Errorf("seed item %d: content is required", i+1)
		}
	}
	return items, nil
}

// Ingest writes every item with at most limit writes in flight.
// The first failure cancels the remaining writes and is returned.
func Ingest(ctx context.Context, adder KnowledgeAdder, items []SeedItem, limit int) (int, error) {
	if limit < 1 {
		limit = 1
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := adder.AddKnowledge(gctx, item.Content, item.Source); err != nil {
				return fmt.Errorf("seed item %d: %w", i+1, err)
			}
			written.Add(1)
			return nil
		})
	}

	err := g.Wait()
	return int(written.Load()), err
}

func runKnowledge(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	items, err := ParseSeedFile(data)
	if err != nil {
		return err
	}

	sm, err := newServices()
	if err != nil {
		return err
	}
	defer sm.Close()
	defer logger.Sync()

	log := logger.Named("seed")
	log.Info("Loading knowledge",
		zap.String("file", seedFile),
		zap.Int("items", len(items)),
		zap.Int("concurrency", concurrency),
	)

	written, err := Ingest(cmd.Context(), sm.Orchestrator(), items, concurrency)
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d of %d knowledge items\n", written, len(items))
	return err
}
