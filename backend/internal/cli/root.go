package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cose-ai/backend/internal/services"
	"cose-ai/backend/pkg/config"
	"cose-ai/backend/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "seed - COSE AI knowledge graph maintenance",
	Long: `seed prepares the Neo4j knowledge graph used by the COSE AI backend.

It creates the indexes and constraints both retrieval strategies rely on,
and bulk-loads reference knowledge from YAML files through the same write
path as POST /api/add-knowledge.

Configuration is read from the environment (and .env, via config.Load), exactly like the server.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newServices loads configuration, initializes logging and builds the service manager.
// Callers must Close the returned manager.
func newServices() (*services.ServiceManager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Env); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return services.NewServiceManager(logger.Named("services"), cfg)
}
