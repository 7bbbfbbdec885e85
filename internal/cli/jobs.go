package cli // import "jobwatch.app/internal/cli"

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"jobwatch.app/internal/storage"
)

var runWorkerCmd = cobra.Command{
	Use:   "run-worker",
	Short: "Run one notification worker pass and exit",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(
			func(ctx context.Context, store *storage.Storage) error {
				run, err := makeDeps(store).Worker.Run(ctx)
				if err != nil {
					return err
				}
				slog.Info("Worker run completed",
					slog.Int64("job_run_id", run.ID),
					slog.String("status", run.Status),
					slog.Int("processed", run.Processed),
					slog.Int("new_offers", run.NewOffers),
					slog.Int("errors", run.Errors))
				return nil
			})
	},
}

var syncOffersCmd = cobra.Command{
	Use:   "sync-offers",
	Short: "Refresh the offer cache from the upstream catalog and exit",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(
			func(ctx context.Context, store *storage.Storage) error {
				result, err := makeDeps(store).Syncer.SyncOffers(ctx)
				if err != nil {
					return err
				}
				slog.Info("Offer sync completed",
					slog.Int("fetched", result.Fetched),
					slog.Int("created", result.Created),
					slog.Int("updated", result.Updated),
					slog.Int64("deleted", result.Deleted),
					slog.Bool("skipped", result.Skipped))
				return nil
			})
	},
}

var syncCitiesCmd = cobra.Command{
	Use:   "sync-cities",
	Short: "Rebuild the city aggregate from the upstream catalog and exit",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(
			func(ctx context.Context, store *storage.Storage) error {
				result, err := makeDeps(store).Syncer.SyncCities(ctx)
				if err != nil {
					return err
				}
				slog.Info("City sync completed",
					slog.Int("fetched", result.Fetched),
					slog.Int("cities", result.Cities),
					slog.Bool("skipped", result.Skipped))
				return nil
			})
	},
}
