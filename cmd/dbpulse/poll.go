package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/jpalmerr/dbpulse"
	"github.com/jpalmerr/dbpulse/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// newLogger creates a JSON logger for CLI use. Diagnostics go to stderr so
// stdout stays a clean stream of row JSON.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// pollCmd starts the polling agent.
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll the configured queries",
	Long: `Start the dbpulse polling agent.

The agent will:
  - Load configuration from the specified YAML file
  - Connect to the database named by the dsn
  - Run every configured query once per poll_interval, in order
  - Write each result row to stdout as a JSON line

Query failures are logged to stderr and never stop the agent; a failed
query is simply retried on its next tick. The agent runs until
interrupted (Ctrl+C) or it receives SIGTERM.

Example:
  dbpulse poll -c config.yaml
  dbpulse poll --config /etc/dbpulse/config.yaml`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = pollCmd.MarkFlagRequired("config")
}

// rowLine is the JSON shape written to stdout for every dispatched row.
type rowLine struct {
	Query string      `json:"query"`
	Row   dbpulse.Row `json:"row"`
}

func runPoll(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"queries", len(cfg.Queries),
		"poll_interval", cfg.PollInterval.Duration().String(),
	)

	db, err := sqlx.Connect("pgx", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// the encoder is shared by every query's action; actions run on the
	// single polling goroutine, but guard anyway so the sink stays safe if
	// callers ever fan rows out
	var mu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	sink := func(query string, row dbpulse.Row) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(rowLine{Query: query, Row: normalizeRow(row)}); err != nil {
			logger.Warn("failed to encode row", "query", query, "error", err)
		}
	}

	queries, err := config.BuildQueries(cfg, dbpulse.NewMapBackend(db), sink)
	if err != nil {
		return fmt.Errorf("failed to build queries: %w", err)
	}

	agent, err := dbpulse.New(queries,
		dbpulse.WithInterval(cfg.PollInterval.Duration()),
		dbpulse.WithLogger(logger),
		dbpulse.WithErrorHandler(func(err error) {
			logger.Warn("query failed", "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := agent.Start(ctx)

	<-ctx.Done()
	handle.Cancel()

	// wait for the loop to drain, but never hang a shutdown
	select {
	case <-handle.Done():
		logger.Info("shutdown complete")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
	}
	return nil
}

// normalizeRow converts []byte column values to strings so text columns
// surface as JSON strings rather than base64.
func normalizeRow(row dbpulse.Row) dbpulse.Row {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}
