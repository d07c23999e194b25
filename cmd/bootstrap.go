package cmd

import (
	"context"
	"time"

	"profile-ingest/core/config"
	"profile-ingest/core/database"
	"profile-ingest/core/fetcher"
	"profile-ingest/core/logger"
	"profile-ingest/core/reconcile"
	"profile-ingest/core/storage"
	"profile-ingest/feature/profile"
	"profile-ingest/feature/profile/store"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// noMigrate makes commands verify the schema instead of migrating it.
var noMigrate bool

// app holds the collaborators shared by every command that touches the database.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	opts   profile.EngineOptions
	// client is nil unless assets are fetched by content from object storage.
	client storage.Client
}

// bootstrap loads configuration, builds the logger and opens the store. When
// withFetcher is set it also builds the asset fetcher configured under "fetch".
func bootstrap(ctx context.Context, withFetcher bool) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config")
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize logger")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to database")
	}
	logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	st := store.New(db)
	if noMigrate {
		if err := st.CheckSchema(ctx); err != nil {
			return nil, eris.Wrap(err, "schema check failed")
		}
	} else if err := st.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "failed to migrate schema")
	}

	a := &app{
		cfg:    cfg,
		logger: logg,
		store:  st,
		opts: profile.EngineOptions{
			MaxAssetBytes: cfg.Fetch.MaxAssetBytes,
			Locks:         reconcile.NewKeyLocker(),
		},
	}
	if !withFetcher {
		return a, nil
	}

	f, client, err := newFetcher(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	a.opts.Fetcher = f
	a.client = client
	return a, nil
}

// reapAfter is the age after which a running run counts as abandoned.
func (a *app) reapAfter() time.Duration {
	return time.Duration(a.cfg.Ingest.ReapAfterMinutes) * time.Minute
}

// newFetcher builds the configured fetcher. Object storage is optional: when the
// client cannot be created s3:// references fail per asset instead of per run.
func newFetcher(ctx context.Context, cfg *config.Config, logg *zap.Logger) (reconcile.Fetcher, storage.Client, error) {
	if cfg.Fetch.Mode != fetcher.ModeContent {
		logg.Info("Fingerprinting assets by reference")
		return nil, nil, nil
	}

	var client storage.Client
	if c, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Object storage unavailable, s3 assets will fail", zap.Error(err))
	} else {
		client = c
		if ok, err := c.BucketExists(ctx, cfg.Storage.Bucket); err != nil || !ok {
			logg.Warn("Asset bucket is not reachable", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
		}
	}

	f, err := fetcher.New(cfg.Fetch, client)
	if err != nil {
		return nil, nil, eris.Wrap(err, "failed to create fetcher")
	}
	logg.Info("Fingerprinting assets by content", zap.Int64("max_bytes", cfg.Fetch.MaxAssetBytes))
	return f, client, nil
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&noMigrate, "no-migrate", false, "Verify the schema instead of migrating it")
}
