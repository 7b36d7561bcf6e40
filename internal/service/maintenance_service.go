package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lorewiki-backend/internal/background"
	"lorewiki-backend/internal/repository"
	"lorewiki-backend/internal/title"
	"lorewiki-backend/pkg/logger"
)

const backfillBatchSize = 200

var (
	maintenanceMetricsOnce sync.Once
	pagesByNamespace       *prometheus.GaugeVec
)

func initMaintenanceMetrics() {
	pagesByNamespace = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lorewiki",
			Subsystem: "maintenance",
			Name:      "pages",
			Help:      "Live pages per namespace, refreshed by the maintenance sweep.",
		},
		[]string{"namespace"},
	)
}

// MaintenanceService owns periodic housekeeping. Its one standing job
// re-rolls the random sort key for pages that never got one; key zero is
// unreachable by the strict comparison random selection uses, so those
// pages would otherwise never be picked. The same sweep refreshes the
// page-count gauges.
type MaintenanceService struct {
	pageRepo  repository.PageRepository
	scheduler *background.Scheduler

	randomKey func() float64
}

func NewMaintenanceService(pageRepo repository.PageRepository, scheduler *background.Scheduler) *MaintenanceService {
	maintenanceMetricsOnce.Do(initMaintenanceMetrics)
	return &MaintenanceService{
		pageRepo:  pageRepo,
		scheduler: scheduler,
		randomKey: rand.Float64,
	}
}

// BackfillRandomKeys assigns fresh sort keys to one batch of key-less
// pages and reports how many it touched.
func (s *MaintenanceService) BackfillRandomKeys(ctx context.Context) (int, error) {
	pages, err := s.pageRepo.ListZeroRandomKeys(backfillBatchSize)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		if err := s.pageRepo.UpdateRandomKey(page.ID, s.randomKey()); err != nil {
			return updated, err
		}
		updated++
	}

	if updated > 0 {
		logger.Info("Backfilled random sort keys", map[string]interface{}{"pages": updated})
	}
	return updated, nil
}

// RefreshPageGauges re-counts live pages per namespace and publishes the
// totals. Count failures leave the previous gauge value standing.
func (s *MaintenanceService) RefreshPageGauges() {
	for label, ns := range map[string]title.Namespace{
		"main": title.NamespaceMain,
		"file": title.NamespaceFile,
	} {
		count, err := s.pageRepo.CountByNamespace(ns)
		if err != nil {
			logger.Warn("Failed to count pages for gauge", map[string]interface{}{
				"namespace": label,
				"error":     err.Error(),
			})
			continue
		}
		pagesByNamespace.WithLabelValues(label).Set(float64(count))
	}
}

// ScheduleBackfill runs the sweep immediately and then again every
// interval, for the life of the scheduler.
func (s *MaintenanceService) ScheduleBackfill(interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	return s.scheduler.ScheduleEvery(interval, background.Job{
		Name:    "random-key-backfill",
		Timeout: 5 * time.Minute,
		RetryPolicy: background.RetryPolicy{
			MaxRetries: 2,
			Backoff:    30 * time.Second,
		},
		Run: func(ctx context.Context) error {
			if _, err := s.BackfillRandomKeys(ctx); err != nil {
				return err
			}
			s.RefreshPageGauges()
			return nil
		},
	})
}
