package jobqueue

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/brm-map/BrevetSync/internal/pkg/config"
	"github.com/brm-map/BrevetSync/internal/pkg/geocode"
)

// Manager manages the global job queue
type Manager struct {
	queue   *Queue
	mu      sync.Mutex
	running bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// InitManager builds the global manager once. The runner's scheduler is wired
// back to the queue here so slice continuation goes through Redis.
func InitManager(cfg *config.Config, runner *geocode.Runner) *Manager {
	managerOnce.Do(func() {
		queue := NewQueue(cfg.JobQueueWorkers, runner)
		runner.SetScheduler(queue)
		globalManager = &Manager{queue: queue}
	})
	return globalManager
}

// GetManager returns the global job queue manager
func GetManager() *Manager {
	if globalManager == nil {
		panic("Job queue manager not initialized. Call InitManager first.")
	}
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue workers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue")
	m.queue.Start()
}

// Stop stops the job queue workers
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	log.Info("[JobQueue Manager] Stopping job queue")
	m.queue.Stop()
}
