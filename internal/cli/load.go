package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-tickpipe/internal/db"
	"github.com/pgEdge/pgedge-tickpipe/internal/loader"
	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Upsert the transformed table into PostgreSQL",
	Long: `Read the transformed table artifact and apply it to the stock_ticks
table in a single transaction. Rows whose (symbol, ts) key already
exists are updated in place; new keys are inserted. A failed load leaves
the database unchanged.

Example:
  pgedge-tickpipe load --connection "postgres://..."
  POSTGRES_HOST=db.example.com pgedge-tickpipe load`,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, db.ConnString(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	area := staging.New(cfg.StagingDir)
	_, err = loader.New(area, pool).Run(ctx)
	return err
}
