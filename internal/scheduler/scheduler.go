package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"focuslink/internal/logger"

	"github.com/robfig/cron/v3"
)

const (
	// rolloverSpec fires at local midnight so the displayed streak drops once a day is missed.
	rolloverSpec = "0 0 * * *"
	probeSpec    = "@hourly"
	probeTimeout = 5 * time.Second
)

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler already running")

// StatsRefresher re-evaluates day-dependent stats.
type StatsRefresher interface {
	RefreshStats()
}

// DeviceProber checks for the companion display.
type DeviceProber interface {
	Connected() bool
	Probe(ctx context.Context) error
}

// Scheduler runs the periodic background jobs.
type Scheduler struct {
	cron    *cron.Cron
	stats   StatsRefresher
	prober  DeviceProber
	mu         sync.Mutex
	running    bool
	registered bool
}

// New creates a scheduler. prober may be nil when no device is configured.
func New(stats StatsRefresher, prober DeviceProber) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		stats:  stats,
		prober: prober,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	if !s.registered {
		if _, err := s.cron.AddFunc(rolloverSpec, s.runRollover); err != nil {
			return fmt.Errorf("add rollover job: %w", err)
		}
		if s.prober != nil {
			if _, err := s.cron.AddFunc(probeSpec, s.runProbe); err != nil {
				return fmt.Errorf("add probe job: %w", err)
			}
		}
		s.registered = true
	}

	s.cron.Start()
	s.running = true
	logger.Info("scheduler started with %d jobs", len(s.cron.Entries()))
	return nil
}

// Stop halts the runner and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) runRollover() {
	logger.Debug("daily stats rollover")
	s.stats.RefreshStats()
}

func (s *Scheduler) runProbe() {
	if s.prober.Connected() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := s.prober.Probe(ctx); err != nil {
		logger.Info("device probe: %v", err)
	}
}
