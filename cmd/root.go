package cmd

import (
	"fmt"
	"os"

	"profile-ingest/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "profile-ingest",
	Short: "Profile Ingest Service",
	Long: `Profile Ingest reconciles batches of scraped profile records against the
stored copy, keeping a field-level change log, one current version per
profile image, and an auditable record of every ingestion run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format at debug level gives readable ISO8601 timestamps for CLI errors.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
