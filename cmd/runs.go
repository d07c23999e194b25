package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/store"
	"profile-ingest/feature/runs"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runsPrincipal string
	runsStatus    string
	runsLimit     int
	runsOlderThan time.Duration
)

// runsCmd is the parent command for run history operations.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and maintain ingestion runs",
}

// runsListCmd lists runs, newest first.
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		svc := runs.NewService(a.store, a.logger)

		list, err := svc.List(cmd.Context(), runsPrincipal, store.RunFilter{
			Status: reconcile.RunStatus(runsStatus),
			Limit:  runsLimit,
		})
		if err != nil {
			return err
		}
		for _, r := range list {
			a.logger.Info("Run",
				zap.String("id", r.ID),
				zap.String("kind", string(r.Kind)),
				zap.String("status", string(r.Status)),
				zap.String("owner", r.OwnerID),
				zap.Time("started_at", r.StartedAt),
				zap.Int("processed", r.Stats.Processed),
				zap.String("error", r.Error),
			)
		}
		a.logger.Info("Runs listed", zap.Int("count", len(list)))
		return nil
	},
}

// runsShowCmd prints one run as JSON.
var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a run with its statistics as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		svc := runs.NewService(a.store, a.logger)

		run, err := svc.Get(cmd.Context(), runsPrincipal, args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return eris.Wrap(err, "failed to encode run")
		}
		fmt.Println(string(out))
		return nil
	},
}

// runsReapCmd fails runs abandoned in the running state.
var runsReapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Fail runs that stayed running past a cutoff",
	Long: `A run whose process died stays running forever. Reap marks every run that
started longer ago than --older-than as failed, keeping its counters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		svc := runs.NewService(a.store, a.logger)

		olderThan := runsOlderThan
		if olderThan <= 0 {
			olderThan = a.reapAfter()
		}
		if olderThan <= 0 {
			return eris.New("reap cutoff must be positive")
		}

		n, err := svc.Reap(cmd.Context(), olderThan)
		if err != nil {
			return err
		}
		a.logger.Info("Reap finished", zap.Int64("reaped", n), zap.Duration("older_than", olderThan))
		return nil
	},
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsPrincipal, "principal", "", "Only runs of this principal (default all)")
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "Filter by status (running, completed, failed)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 50, "Maximum number of runs")
	runsReapCmd.Flags().DurationVar(&runsOlderThan, "older-than", 0, "Age cutoff; defaults to ingest.reap_after_minutes")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsReapCmd)
	RootCmd.AddCommand(runsCmd)
}
