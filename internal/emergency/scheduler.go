package emergency

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler runs emergency callbacks after a fixed delay on their own
// goroutine. Scheduled callbacks cannot be cancelled; Wait only drains them.
type Scheduler struct {
	delay   time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
	pending atomic.Int64
	fired   atomic.Int64
}

// NewScheduler creates a scheduler with the given delay
func NewScheduler(delay time.Duration, logger zerolog.Logger) *Scheduler {
	if delay < 0 {
		delay = 0
	}
	return &Scheduler{
		delay: delay,
		log:   logger.With().Str("component", "emergency").Logger(),
	}
}

// Schedule queues fn and returns immediately.
func (s *Scheduler) Schedule(fn func()) {
	if fn == nil {
		return
	}

	s.wg.Add(1)
	s.pending.Add(1)
	time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		defer s.pending.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Msg("emergency callback panicked")
			}
		}()

		fn()
		s.fired.Add(1)
	})

	s.log.Info().Dur("delay", s.delay).Msg("emergency callback scheduled")
}

// Wait blocks until every scheduled callback has run.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Pending returns the number of callbacks that have not finished yet.
func (s *Scheduler) Pending() int64 {
	return s.pending.Load()
}

// Fired returns the number of callbacks that completed without panicking.
func (s *Scheduler) Fired() int64 {
	return s.fired.Load()
}
