package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"profile-ingest/core/config"
	"profile-ingest/core/logger"
	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile"
	"profile-ingest/feature/profile/normalize"
	"profile-ingest/feature/profile/validate"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// fingerprintLine is one record of the fingerprint output.
type fingerprintLine struct {
	IdentityKey string                     `json:"identity_key"`
	Fingerprint string                     `json:"fingerprint,omitempty"`
	Status      reconcile.ValidationStatus `json:"validation_status"`
	Findings    []reconcile.Finding        `json:"findings,omitempty"`
	Assets      map[string]string          `json:"assets,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// fingerprintCmd prints what the engine would compute for a batch file without
// touching the database.
var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <file>",
	Short: "Print normalized fingerprints and findings for a batch file",
	Long: `Normalizes, validates and fingerprints every record of a batch file and prints
one JSON line per record. The database is never opened; assets are fetched only
when fetch.mode is "content".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return eris.Wrap(err, "failed to load config")
		}
		l, err := logger.New(&cfg.Log)
		if err != nil {
			return eris.Wrap(err, "failed to initialize logger")
		}

		f, _, err := newFetcher(ctx, cfg, l)
		if err != nil {
			return err
		}

		records, err := profile.ReadBatchFile(args[0])
		if err != nil {
			return err
		}

		hasher := reconcile.NewHasher(f, cfg.Fetch.MaxAssetBytes)
		return writeFingerprints(ctx, cmd.OutOrStdout(), hasher, records)
	},
}

func writeFingerprints(ctx context.Context, w io.Writer, hasher *reconcile.Hasher, records []reconcile.RawRecord) error {
	n := normalize.New()
	v := validate.New()
	enc := json.NewEncoder(w)

	for i, raw := range records {
		findings := v.Validate(raw)
		line := fingerprintLine{
			Status:   v.Classify(findings),
			Findings: findings,
		}

		rec, err := n.Normalize(raw)
		if err != nil {
			line.IdentityKey = fmt.Sprintf("#%d", i)
			line.Error = err.Error()
		} else {
			line.IdentityKey = rec.IdentityKey
			line.Fingerprint = hasher.Fingerprint(rec)
			line.Assets = make(map[string]string, len(rec.Assets))
			for _, a := range rec.Assets {
				sum, err := hasher.FingerprintAsset(ctx, a.URL)
				if err != nil {
					sum = "error: " + err.Error()
				}
				line.Assets[string(a.Category)+" "+a.URL] = sum
			}
		}

		if err := enc.Encode(line); err != nil {
			return eris.Wrap(err, "failed to write fingerprint")
		}
	}
	return nil
}

func init() {
	RootCmd.AddCommand(fingerprintCmd)
}
