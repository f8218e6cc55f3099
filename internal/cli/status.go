package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ara-foundation/act-indexer/internal/core/config"
	"github.com/ara-foundation/act-indexer/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the watermark of every event stream",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
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

	rows, err := db.QueryContext(ctx, "SELECT event_type, db_timestamp FROM watermarks ORDER BY event_type")
	if err != nil {
		slog.Error("Failed to query watermarks", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rows.Close()
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "EVENT TYPE\tWATERMARK")

	for rows.Next() {
		var eventType, ts string
		if err := rows.Scan(&eventType, &ts); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", eventType, ts)
	}
	_ = w.Flush()
}
