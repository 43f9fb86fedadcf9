package main

import (
	"fmt"

	"github.com/jpalmerr/dbpulse/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without connecting to the database.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a dbpulse configuration file without connecting to the database.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.
Query text is NOT checked against the database; a malformed query only
surfaces at poll time, through the error log.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  dbpulse validate -c config.yaml
  dbpulse validate --config /etc/dbpulse/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Poll interval: %s\n", cfg.PollInterval.Duration())
	if cfg.QueryTimeout != 0 {
		fmt.Printf("  Query timeout: %s\n", cfg.QueryTimeout.Duration())
	}
	fmt.Printf("  Queries:       %d\n", len(cfg.Queries))
	for _, q := range cfg.Queries {
		fmt.Printf("    - %s\n", q.Name)
	}

	return nil
}
