// Package monitor runs the periodic occupancy check: it compares the
// number of currently open sessions against the pool capacity, dispatches
// push alerts on the transition into and out of the at-capacity state, and
// surfaces dangling sessions left open from previous days.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"pool-attendance-backend/config"
	"pool-attendance-backend/internal/ledger"
	"pool-attendance-backend/internal/notification"
	"pool-attendance-backend/internal/store"
)

// Service owns the monitor loop.
type Service struct {
	cfg    *config.Config
	store  store.Store
	ledger *ledger.Service
	pool   *notification.WorkerPool

	// atCapacity tracks the last observed state so alerts only fire on
	// transitions, not on every tick.
	atCapacity bool
}

func NewService(cfg *config.Config, s store.Store, l *ledger.Service, pool *notification.WorkerPool) *Service {
	return &Service{
		cfg:    cfg,
		store:  s,
		ledger: l,
		pool:   pool,
	}
}

// Run starts the monitor loop. It performs one check immediately, then one
// per configured interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Monitor.Enabled {
		log.Println("Occupancy monitor is disabled. Not starting.")
		return
	}
	log.Println("Starting occupancy monitor...")

	s.CheckOnce(ctx)

	timer := time.NewTimer(s.cfg.Monitor.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Occupancy monitor shutting down.")
			return
		case <-timer.C:
			s.CheckOnce(ctx)
			timer.Reset(s.cfg.Monitor.Interval)
		}
	}
}

// CheckOnce performs a single occupancy check.
func (s *Service) CheckOnce(ctx context.Context) {
	today := s.ledger.Today()

	open, err := s.store.OpenVisits(ctx)
	if err != nil {
		log.Printf("occupancy check failed: %v", err)
		return
	}

	occupancy := 0
	for _, r := range open {
		if r.Date == today {
			occupancy++
		}
	}

	dangling := len(open) - occupancy
	if dangling > 0 {
		log.Printf("%d session(s) from previous days are still open; see the diagnostics report", dangling)
	}

	capacity := s.cfg.Pool.Capacity
	if capacity <= 0 {
		return
	}

	switch {
	case occupancy >= capacity && !s.atCapacity:
		s.atCapacity = true
		msg := fmt.Sprintf("Pool occupancy %d/%d: at capacity", occupancy, capacity)
		log.Println(msg)
		s.pool.Dispatch(notification.Alert{Message: msg})
	case occupancy < capacity && s.atCapacity:
		s.atCapacity = false
		msg := fmt.Sprintf("Pool occupancy %d/%d: back below capacity", occupancy, capacity)
		log.Println(msg)
		s.pool.Dispatch(notification.Alert{Message: msg})
	}
}
