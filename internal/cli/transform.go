package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
	"github.com/pgEdge/pgedge-tickpipe/internal/transformer"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Consolidate staged raw batches into the transformed table",
	Long: `Consume every unconsumed raw artifact in the staging area and publish
the consolidated, validated table artifact. Consumed artifacts are moved
to the archive so the next run does not reprocess them.

Fails if the staging area holds nothing to consume.

Example:
  pgedge-tickpipe transform
  pgedge-tickpipe transform --staging-dir /var/lib/tickpipe`,
	RunE: runTransform,
}

func runTransform(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	area := staging.New(cfg.StagingDir)
	_, err := transformer.New(area).Run(context.Background())
	return err
}
