package cmd

import (
	"context"

	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ingestKind      string
	ingestPrincipal string
	ingestParallel  int
)

// ingestCmd reconciles batch files, one run per file.
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Reconcile batch files of raw profile records",
	Long: `Reconcile one or more batch files against the stored profiles.

Each file is a JSON array or a YAML sequence (.yaml, .yml) of raw records and
becomes its own run. Files are processed concurrently; a failed file does not
stop the others.

Examples:
  # Incremental run as the configured principal
  ingest batch.json

  # Full runs for a whole export, two files at a time
  ingest --kind full --parallel 2 --principal alice exports/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestKind, "kind", "", "Run kind (full, incremental); defaults to ingest.kind")
	ingestCmd.Flags().StringVar(&ingestPrincipal, "principal", "", "Principal the runs act as; defaults to ingest.principal")
	ingestCmd.Flags().IntVar(&ingestParallel, "parallel", 0, "Files processed at once; defaults to ingest.parallel")
	RootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, files []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx, true)
	if err != nil {
		return err
	}
	l := a.logger
	defer l.Sync()

	kind := reconcile.RunKind(firstNonEmpty(ingestKind, a.cfg.Ingest.Kind))
	if !kind.Valid() {
		return eris.Errorf("unknown run kind %q", kind)
	}
	principal := firstNonEmpty(ingestPrincipal, a.cfg.Ingest.Principal)
	if principal == "" {
		return eris.Wrap(reconcile.ErrAuthenticationRequired, "set --principal or INGEST_PRINCIPAL")
	}
	parallel := ingestParallel
	if parallel <= 0 {
		parallel = a.cfg.Ingest.Parallel
	}

	engine, err := profile.NewEngine(a.store, reconcile.StaticPrincipal(principal), l, a.opts)
	if err != nil {
		return eris.Wrap(err, "failed to create engine")
	}

	results := ingestFiles(ctx, engine, l, kind, files, parallel)

	var total reconcile.RunStats
	failed := 0
	for _, r := range results {
		total = total.Add(r.run.Stats)
		if r.err != nil {
			failed++
		}
	}

	l.Info("Ingestion report",
		zap.Int("files", len(files)),
		zap.Int("failed_files", failed),
		zap.Int("processed", total.Processed),
		zap.Int("added", total.Added),
		zap.Int("updated", total.Updated),
		zap.Int("unchanged", total.Unchanged),
		zap.Int("images_processed", total.ImagesProcessed),
		zap.Int("validation_failures", total.ValidationFailures),
	)

	if failed > 0 {
		return eris.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// fileResult is the outcome of one ingested file.
type fileResult struct {
	file string
	run  reconcile.RunRecord
	err  error
}

// ingestFiles runs one batch per file with at most parallel files in flight.
// Results keep the order of files.
func ingestFiles(ctx context.Context, engine *reconcile.Engine, l *zap.Logger, kind reconcile.RunKind, files []string, parallel int) []fileResult {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i, file := range files {
		g.Go(func() error {
			results[i] = ingestFile(gctx, engine, l, kind, file)
			// File failures are reported, never propagated: siblings keep running.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func ingestFile(ctx context.Context, engine *reconcile.Engine, l *zap.Logger, kind reconcile.RunKind, file string) fileResult {
	fl := l.With(zap.String("file", file))

	records, err := profile.ReadBatchFile(file)
	if err != nil {
		fl.Error("Failed to read batch", zap.Error(err))
		return fileResult{file: file, err: err}
	}

	run, err := engine.RunBatch(ctx, kind, records)
	if err != nil {
		fl.Error("Run failed", zap.String("run_id", run.ID), zap.Error(err))
		return fileResult{file: file, run: run, err: err}
	}

	fl.Info("Run completed", zap.String("run_id", run.ID), zap.Int("records", len(records)))
	return fileResult{file: file, run: run}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
