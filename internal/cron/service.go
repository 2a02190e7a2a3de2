package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ServiceParams configure the scan scheduler.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.JobMetrics
}

// Service executes registered scan jobs, each on its own cadence. Passes are
// stateless between invocations; a failed pass simply waits for its next
// scheduled tick.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.JobMetrics
}

// NewService builds a scan scheduler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
	}, nil
}

// Run starts one ticker loop per registered entry and blocks until the
// context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var wg sync.WaitGroup
	for _, entry := range s.registry.Entries() {
		wg.Add(1)
		go func(entry Entry) {
			defer wg.Done()
			s.runLoop(ctx, entry)
		}(entry)
	}
	wg.Wait()

	s.logg.Info(ctx, "scan scheduler context canceled")
	return ctx.Err()
}

func (s *Service) runLoop(ctx context.Context, entry Entry) {
	every := entry.Every
	if every <= 0 {
		every = defaultInterval
	}

	s.runJob(ctx, entry)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runJob(ctx, entry)
		}
	}
}

func (s *Service) runJob(ctx context.Context, entry Entry) {
	locked, err := s.lock.Acquire(ctx, entry.Job.Name())
	if err != nil {
		s.logg.Error(ctx, "scan lock acquire failed", err)
		return
	}
	if !locked {
		s.logg.Info(s.logg.WithField(ctx, "job", entry.Job.Name()),
			"another worker holds the scan lock; skipping this tick")
		return
	}
	defer func() {
		if relErr := s.lock.Release(ctx, entry.Job.Name()); relErr != nil {
			s.logg.Error(ctx, "failed to release scan lock", relErr)
		}
	}()

	jobCtx := s.logg.WithField(ctx, "job", entry.Job.Name())
	cancel := func() {}
	if entry.Timeout > 0 {
		jobCtx, cancel = context.WithTimeout(jobCtx, entry.Timeout)
	}
	defer cancel()

	s.logg.Info(jobCtx, "scan pass starting")
	start := time.Now()
	runErr := entry.Job.Run(jobCtx)
	duration := time.Since(start)
	s.observeDuration(entry.Job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if runErr != nil {
		s.logg.Error(jobCtx, "scan pass failed", runErr)
		s.recordFailure(entry.Job.Name())
		return
	}
	s.logg.Info(jobCtx, "scan pass completed")
	s.recordSuccess(entry.Job.Name())
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}
