package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ara-foundation/act-indexer/internal/core/config"
	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage/postgres"
)

var resetWatermarkCmd = &cobra.Command{
	Use:   "reset-watermark [event_type] [timestamp]",
	Short: "Reset one stream's watermark to a given write timestamp",
	Long:  `Moves a stream's watermark back so the next cycle refetches everything after the given timestamp. Projections are idempotent, so the replay converges.`,
	Args:  cobra.RangeArgs(1, 2),
	Run:   runResetWatermark,
}

func init() {
	rootCmd.AddCommand(resetWatermarkCmd)
}

func runResetWatermark(cmd *cobra.Command, args []string) {
	eventType := domain.EventType(args[0])

	known := false
	for _, t := range domain.EventTypes {
		if t == eventType {
			known = true
			break
		}
	}
	if !known {
		fmt.Printf("Unknown event type: %s\n", eventType)
		os.Exit(1)
	}

	timestamp := domain.DefaultWatermark
	if len(args) == 2 {
		timestamp = args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	query := `INSERT INTO watermarks (event_type, db_timestamp) VALUES ($1, $2)
		ON CONFLICT (event_type) DO UPDATE SET db_timestamp = EXCLUDED.db_timestamp`
	if _, err := db.ExecContext(ctx, query, string(eventType), timestamp); err != nil {
		slog.Error("Failed to reset watermark", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Reset %s watermark to %s\n", eventType, timestamp)
}
