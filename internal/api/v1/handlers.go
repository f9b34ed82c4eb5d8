package apiv1

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/brm-map/BrevetSync/internal/pkg/brevetsync"
	"github.com/brm-map/BrevetSync/internal/pkg/config"
	"github.com/brm-map/BrevetSync/internal/pkg/geocode"
	"github.com/brm-map/BrevetSync/internal/pkg/jobqueue"
	counter "github.com/brm-map/BrevetSync/internal/pkg/metrics/counter"
)

// APIServer exposes the sync pipeline over HTTP
type APIServer struct {
	syncService *brevetsync.Service
	runner      *geocode.Runner
	queue       *jobqueue.Queue
}

// NewAPIServer creates a new API server instance
func NewAPIServer(syncService *brevetsync.Service, runner *geocode.Runner, queue *jobqueue.Queue) *APIServer {
	return &APIServer{
		syncService: syncService,
		runner:      runner,
		queue:       queue,
	}
}

// RegisterHandlers attaches all v1 routes to the given router group
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Post("/sync", s.PostSync)
	router.Post("/geocode/drain", s.PostGeocodeDrain)
	router.Get("/stats", s.GetStats)
	router.Get("/jobs/:id", s.GetJob)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// PostSync runs one full sync pass: fetch catalog, reconcile, trigger the
// geocoding drain. The drain runs in the background; the report returns
// immediately.
func (s *APIServer) PostSync(c *fiber.Ctx) error {
	report, err := s.syncService.Sync(c.Context())
	if err != nil {
		log.Errorf("[API] Sync failed: %v", err)
		status := fiber.StatusInternalServerError
		if errors.Is(err, config.ErrMissingCatalogToken) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"success":   false,
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
	}

	if err := counter.AddSyncRun(); err != nil {
		log.Warnf("[API] Failed to update sync counter: %v", err)
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

// PostGeocodeDrain processes one geocoding backlog slice synchronously and
// lets the runner schedule the follow-up slice when backlog remains.
// Query params: limit (slice size), depth (continuation counter), year
// (restrict backlog to one calendar year).
func (s *APIServer) PostGeocodeDrain(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", s.runner.DefaultSliceLimit())
	depth := c.QueryInt("depth", 1)
	year := c.QueryInt("year", 0)

	stats, err := s.runner.RunSlice(c.Context(), limit, depth, year)
	if stats != nil {
		if cerr := counter.AddGeocodeOutcome(stats.Geocoded, stats.Errors); cerr != nil {
			log.Warnf("[API] Failed to update geocode counters: %v", cerr)
		}
	}
	if err != nil {
		log.Errorf("[API] Geocode drain failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	message := "No brevets to geocode"
	if stats.Processed > 0 {
		message = fmt.Sprintf("Geocoded %d out of %d brevets", stats.Geocoded, stats.Processed)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"stats":   stats,
	})
}

// GetStats returns cumulative pipeline counters and queue depths
func (s *APIServer) GetStats(c *fiber.Ctx) error {
	counters, err := counter.GetAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	response := fiber.Map{
		"success":  true,
		"counters": counters,
	}
	if s.queue != nil {
		ctx := c.Context()
		if pending, err := s.queue.GetQueueSize(ctx); err == nil {
			response["jobs_pending"] = pending
		}
		if processing, err := s.queue.GetProcessingSize(ctx); err == nil {
			response["jobs_processing"] = processing
		}
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// GetJob returns the state of a background job by ID
func (s *APIServer) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "job id missing",
		})
	}

	job, err := s.queue.GetJob(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "job not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"job":     job,
	})
}
