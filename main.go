package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/brm-map/BrevetSync/app/repository"
	apiv1 "github.com/brm-map/BrevetSync/internal/api/v1"
	"github.com/brm-map/BrevetSync/internal/pkg/brevetsync"
	"github.com/brm-map/BrevetSync/internal/pkg/cache"
	"github.com/brm-map/BrevetSync/internal/pkg/catalog"
	"github.com/brm-map/BrevetSync/internal/pkg/config"
	"github.com/brm-map/BrevetSync/internal/pkg/database"
	"github.com/brm-map/BrevetSync/internal/pkg/geocode"
	"github.com/brm-map/BrevetSync/internal/pkg/jobqueue"
	"github.com/brm-map/BrevetSync/internal/pkg/router"
)

func main() {
	cfg := config.Load()
	app := NewApplication(cfg)
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort))
	log.Fatal(err)
}

func NewApplication(cfg *config.Config) *fiber.App {
	database.Setup(cfg)
	cache.Setup(cfg)

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	// Geocoding pipeline: runner drains the backlog, the job queue carries
	// slice-to-slice continuation.
	geocodeClient := geocode.NewClient(cfg)
	runner := geocode.NewRunner(repos.Brevet, geocodeClient, cfg)
	manager := jobqueue.InitManager(cfg, runner)
	manager.Start()

	catalogClient := catalog.NewClient(cfg)
	reconciler := brevetsync.NewReconciler(repos)
	syncService := brevetsync.NewService(cfg, catalogClient, reconciler, repos.Brevet, manager.GetQueue())

	app := fiber.New(fiber.Config{
		AppName: "BrevetSync",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// ROUTER
	server := apiv1.NewAPIServer(syncService, runner, manager.GetQueue())
	router.InstallRouter(app, server)

	return app
}
