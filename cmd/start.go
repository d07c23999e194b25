package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"profile-ingest/core/loader"
	"profile-ingest/core/logger"
	"profile-ingest/core/middleware/auth"
	"profile-ingest/core/middleware/rayid"
	"profile-ingest/core/reconcile"
	"profile-ingest/feature/integrity"
	"profile-ingest/feature/profile"
	"profile-ingest/feature/runs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "profile-ingest/docs/swagger"
)

// @title Profile Ingest API
// @version 1.0
// @description API for reconciling scraped profile batches.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the profile ingest server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := bootstrap(cmd.Context(), true)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := a.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		principals := a.cfg.Server.Principals()
		if len(principals) == 0 {
			logg.Fatal("No API keys configured, set SERVER_API_KEY or SERVER_KEYS")
		}

		engine, err := profile.NewEngine(a.store, reconcile.ContextPrincipal{}, logg, a.opts)
		if err != nil {
			logg.Fatal("Failed to create engine", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             a.cfg.Server.BodyLimitMB * 1024 * 1024,
		})

		mgr := loader.NewManager()
		mgr.Register(profile.NewFeature(engine, a.store, logg))
		mgr.Register(runs.NewFeature(a.store, logg))
		mgr.Register(integrity.NewFeature(integrity.NewService(
			a.client, a.cfg.Storage.Bucket, logg, a.store.DB(), a.store, a.reapAfter(),
		)))

		// RayID first so every later log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger stays public.
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{Principals: principals}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port), zap.Int("principals", len(principals)))
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
