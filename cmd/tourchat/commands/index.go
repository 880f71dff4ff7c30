package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tourchat/tourchat-go/internal/logging"
	"github.com/tourchat/tourchat-go/internal/pagination"
)

// NewIndexCmd constructs the `tourchat index` command, which bulk-embeds the
// whole tour catalog into the vector store ahead of time. The chat path warms
// the cache lazily as tours are listed; this command front-loads that work so
// the first semantic search in every destination is already fast.
func NewIndexCmd() *cobra.Command {
	var batch int32

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Bulk-index the tour catalog into the vector store",
		Long: `Scan the full tour table and ensure every tour is embedded in the Qdrant
tours collection. Already-indexed tours are skipped, so re-running is cheap.

Heritage guides are not indexed here — they are fetched and embedded on
first request per tour.

Examples:
  tourchat index
  tourchat index --batch 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			be, err := buildBackend(ctx, log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer be.Close()

			total := 0
			var tok *pagination.Token
			for {
				tours, next, err := be.Tours.All(ctx, batch, tok)
				if err != nil {
					return fmt.Errorf("index: scan failed after %d tours: %w", total, err)
				}
				if len(tours) == 0 && next == nil {
					break
				}

				if err := be.Indexer.EnsureTours(ctx, tours); err != nil {
					return fmt.Errorf("index: embedding failed after %d tours: %w", total, err)
				}
				total += len(tours)
				log.Info("indexed batch", slog.Int("tours", len(tours)), slog.Int("total", total))

				if next == nil {
					break
				}
				tok = next
			}

			log.Info("index complete", slog.Int("total", total))
			return nil
		},
	}

	cmd.Flags().Int32Var(&batch, "batch", 100, "Number of tours to scan and embed per batch")

	return cmd
}
