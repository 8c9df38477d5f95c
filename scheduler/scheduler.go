// Package scheduler provides automated registry refreshes and health
// monitoring for pharmatools. It handles cron-based updates and coordinates
// refresh operations with the data container using dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/kerlann/pharmatools/interfaces"
	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/metrics"
)

// Compile-time check to ensure Scheduler implements the Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles registry refreshes and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.RegistryParser
	scheduler *gocron.Scheduler
	stopCh    chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.RegistryParser) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		scheduler: gocron.NewScheduler(time.Local),
		stopCh:    make(chan struct{}),
	}
}

// Start performs the initial registry load and schedules daily refreshes
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial registry load", "error", err)
		return fmt.Errorf("initial registry load failed: %w", err)
	}

	// Refresh once a day; the registries publish daily exports
	_, err := s.scheduler.Every(1).Days().At("05:30").Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to refresh registries", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule registry refresh", "error", err)
		return fmt.Errorf("failed to schedule registry refresh: %w", err)
	}

	s.scheduler.StartAsync()

	// Start staleness monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.scheduler.Stop()
}

// updateData performs a complete registry refresh using the injected parser
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Registry update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting registry refresh at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	products, bySource, err := s.parser.ParseAll()
	if err != nil {
		logging.Error("Failed to parse registries", "error", err)
		return fmt.Errorf("failed to parse registries: %w", err)
	}

	if len(products) == 0 {
		return fmt.Errorf("registry refresh produced no products")
	}

	// Atomic swap (zero downtime replacement)
	s.dataStore.UpdateData(products, bySource)

	for source, sourceProducts := range bySource {
		metrics.RegistryProductsTotal.WithLabelValues(source).Set(float64(len(sourceProducts)))
	}

	elapsed := time.Since(start)
	logging.Info("Registry refresh completed",
		"duration", elapsed.String(),
		"product_count", len(products))

	return nil
}

// startHealthMonitoring warns when the registry data goes stale
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > 25*time.Hour {
					logging.Warn("Registry data hasn't been refreshed in over 25 hours",
						"last_updated", lastUpdate.Format(time.RFC3339))
				}
			}
		}
	}()
}
