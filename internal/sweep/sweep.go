// Package sweep runs the periodic offline-device check. The engine itself
// never self-schedules; this service is the external trigger and is safe to
// run alongside other callers of SweepOffline since the dedup invariant is
// enforced by the storage layer.
package sweep

import (
	"context"
	"log"
	"time"

	"parking-monitor-backend/config"
	"parking-monitor-backend/internal/alerting"
)

// Service triggers the offline sweep on a fixed interval.
type Service struct {
	cfg    *config.Config
	alerts *alerting.Engine
}

// NewService creates a sweep service.
func NewService(cfg *config.Config, alerts *alerting.Engine) *Service {
	return &Service{cfg: cfg, alerts: alerts}
}

// Run executes the sweep loop until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweep.Enabled {
		log.Println("Offline sweep is disabled. Not starting.")
		return
	}
	log.Println("Starting offline sweep service...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Sweep.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Offline sweep service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Sweep.Interval)
		}
	}
}

// SweepOnce performs a single sweep cycle.
func (s *Service) SweepOnce(ctx context.Context) {
	created, err := s.alerts.SweepOffline(ctx)
	if err != nil {
		log.Printf("Offline sweep failed: %v", err)
		return
	}
	if created > 0 {
		log.Printf("Offline sweep created %d alert(s)", created)
	}
}
