package alert

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

const DefaultInterval = time.Minute

// Service runs the evaluator on a fixed interval. Cycles never overlap: a
// cycle that outlasts the interval delays the next one until it finishes.
type Service struct {
	evaluator *Evaluator
	interval  time.Duration
	backoff   *backoff.Backoff

	running sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewService(evaluator *Evaluator, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		evaluator: evaluator,
		interval:  interval,
		backoff: &backoff.Backoff{
			Min:    10 * time.Second,
			Max:    5 * time.Minute,
			Factor: 2,
			Jitter: true,
		},
	}
}

// Start launches the background loop. The first cycle runs right away.
// Calling Start on a running service does nothing.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.done)
	log.Infof("Alert service started, checking every %s.", s.interval)
}

// Stop ends the loop and waits for an in-flight cycle to complete.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	log.Info("Alert service stopped.")
}

// RunNow runs one cycle, waiting for any cycle already in progress.
func (s *Service) RunNow(ctx context.Context) (CycleReport, error) {
	s.running.Lock()
	defer s.running.Unlock()

	return s.evaluator.RunCycle(ctx)
}

func (s *Service) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if delay := s.runGuarded(ctx); delay > 0 {
			log.Warnf("Alert cycle failed, next attempt in %s", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runGuarded runs a cycle that stopping the service cannot interrupt and
// returns how long to back off before the next one.
func (s *Service) runGuarded(ctx context.Context) (delay time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic in alert cycle: %v\nStack trace: %s", r, debug.Stack())
			delay = s.backoff.Duration()
		}
	}()

	if _, err := s.RunNow(context.WithoutCancel(ctx)); err != nil {
		log.Errorf("Failed to run alert cycle: %v", err)
		return s.backoff.Duration()
	}

	s.backoff.Reset()
	return 0
}
