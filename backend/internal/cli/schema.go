package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cose-ai/backend/pkg/logger"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the graph indexes and constraints",
	Long: `Create the indexes and uniqueness constraints for Episode, Entity,
ConversationTurn and Knowledge nodes. Every statement is idempotent, so the
command is safe to run against an existing database.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	sm, err := newServices()
	if err != nil {
		return err
	}
	defer sm.Close()
	defer logger.Sync()

	if err := sm.EnsureSchema(cmd.Context()); err != nil {
		return fmt.Errorf("schema bootstrap failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
	return nil
}
