package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"profile-ingest/core/config"
	"profile-ingest/core/database"
	"profile-ingest/core/logger"
	"profile-ingest/core/storage"
	"profile-ingest/feature/integrity"
	"profile-ingest/feature/profile/store"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var integrityJSON bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the database schema, asset bucket and run table",
	Long: `Compares the database schema against the profile models without migrating it,
checks that the asset bucket is reachable and counts runs stuck in the running
state. Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startTime := time.Now()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return eris.Wrap(err, "failed to load config")
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return eris.Wrap(err, "failed to create logger")
		}

		// Database required; never migrated here so drift stays visible.
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return eris.Wrap(err, "database connection required")
		}

		var client storage.Client
		if c, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Storage client unavailable", zap.Error(err))
		} else {
			client = c
		}

		svc := integrity.NewService(client, cfg.Storage.Bucket, logg, db, store.New(db),
			time.Duration(cfg.Ingest.ReapAfterMinutes)*time.Minute)

		schema, err := svc.CheckSchema()
		if err != nil {
			return eris.Wrap(err, "schema check failed")
		}
		bucket := svc.CheckStorage(ctx)
		runs, runsErr := svc.CheckRuns(ctx)
		if runsErr != nil {
			logg.Warn("Runs check failed", zap.Error(runsErr))
		}

		if integrityJSON {
			data, err := json.MarshalIndent(map[string]any{
				"schema":  schema,
				"storage": bucket,
				"runs":    runs,
			}, "", "  ")
			if err != nil {
				return eris.Wrap(err, "failed to marshal JSON")
			}
			fmt.Println(string(data))
		}

		for table, report := range schema.Tables {
			if report.Status != "ok" {
				logg.Warn("Schema drift",
					zap.String("table", table),
					zap.Strings("missing_columns", report.MissingColumns),
					zap.Strings("type_mismatches", report.TypeMismatches),
				)
			}
		}
		for _, e := range schema.Errors {
			logg.Warn("Schema error", zap.String("error", e))
		}

		fields := []zap.Field{
			zap.Bool("schema_matched", schema.Matched),
			zap.String("storage", bucket.Status),
			zap.Duration("execution_time", time.Since(startTime)),
		}
		if runs != nil {
			fields = append(fields, zap.Int("running", runs.Running), zap.Int("stale_runs", runs.Stale))
		}
		logg.Info("Integrity check completed", fields...)

		if !schema.Matched || bucket.Status == "error" || bucket.Status == "missing" || runsErr != nil {
			return eris.New("integrity checks failed")
		}
		return nil
	},
}

func init() {
	integrityCmd.Flags().BoolVar(&integrityJSON, "json", false, "Print the full report as JSON")
	RootCmd.AddCommand(integrityCmd)
}
