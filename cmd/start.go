package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sapataria/core/loader"
	"sapataria/core/logger"
	"sapataria/core/middleware/auth"
	"sapataria/core/middleware/rayid"

	"sapataria/feature/catalog"
	"sapataria/feature/importer"
	"sapataria/feature/integrity"
	"sapataria/feature/product"
	"sapataria/feature/stock"
	"sapataria/feature/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "sapataria/docs/swagger"
)

// @title Sapataria Inventory API
// @version 1.0
// @description Catalog, stock ledger and bulk import API for a shoe shop.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the inventory server",
	Long:  `Migrates the schema, starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := bootstrap(context.Background(), true)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             32 * 1024 * 1024,
		})

		mgr := loader.NewManager()
		mgr.Register(catalog.NewFeature(rt.catalog))
		mgr.Register(product.NewFeature(rt.products))
		mgr.Register(stock.NewFeature(rt.stock))
		mgr.Register(importer.NewFeature(rt.importer))
		mgr.Register(webhook.NewFeature(rt.webhook))
		mgr.Register(integrity.NewFeature(rt.integrity))

		// RayID first so every log line below carries it
		app.Use(rayid.New())
		app.Use(rt.metrics.Middleware())

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

		// Public routes
		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "healthy", "service": logger.ServiceName})
		})
		app.Get("/metrics", rt.metrics.Handler())
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		for _, f := range mgr.Features() {
			logg.Debug("Feature registered", zap.String("feature", f.Name()), zap.Bool("enabled", f.IsEnabled()))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
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
