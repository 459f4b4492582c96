// Package scheduler implements the tick scheduler (spec §4.7): two logical
// tickers — a 2s print ticker for metrics aggregation and a 5ms tick ticker
// driving the cooperative per-tick loop — modeled on the teacher's
// collectors.SystemCollector ticker/select loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/fixture"
	"github.com/mrd0ll4r/kaleidoscope/internal/metrics"
	"github.com/mrd0ll4r/kaleidoscope/internal/program"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// TickInterval is the tick ticker's period (spec §4.7).
const TickInterval = 5 * time.Millisecond

// PrintInterval is the print ticker's period (spec §4.7).
const PrintInterval = 2 * time.Second

// Sender posts a tick's aggregated set-requests upstream (spec §4.7 step
// 5). Satisfied by *upstream.Client.
type Sender interface {
	PostSetRequests(ctx context.Context, reqs []values.SetRequest) error
}

// Scheduler owns the fixtures collection and drives it at TickInterval.
// The fixtures mutex is acquired only for the duration of computing a tick
// and for the duration of a control-surface mutation (spec §4.7, §5).
type Scheduler struct {
	mu       sync.Mutex
	fixtures []*fixture.Fixture

	sender  Sender
	bus     *events.Bus
	logger  *slog.Logger
	fifo    *events.FIFO
	aliases map[values.Address]string

	ticksTotal  uint64
	ticksFailed uint64
}

// New creates a Scheduler over fixtures, posting ticks via sender and
// publishing tick outcomes on bus. fifo and aliases may be nil, in which
// case no events are routed to programs (spec §4.8 step 3).
func New(fixtures []*fixture.Fixture, sender Sender, bus *events.Bus, logger *slog.Logger, fifo *events.FIFO, aliases map[values.Address]string) *Scheduler {
	return &Scheduler{fixtures: fixtures, sender: sender, bus: bus, logger: logger, fifo: fifo, aliases: aliases}
}

// WithFixtures runs fn with the fixtures mutex held, for control-surface
// mutations (spec §4.9).
func (s *Scheduler) WithFixtures(fn func(fixtures []*fixture.Fixture)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.fixtures)
}

// Run drives the scheduler until ctx is canceled. The print ticker logs
// periodic progress; the tick ticker executes exactly one tick per firing,
// with no catch-up for missed deadlines (spec §4.7).
func (s *Scheduler) Run(ctx context.Context) {
	printTicker := time.NewTicker(PrintInterval)
	defer printTicker.Stop()
	tickTicker := time.NewTicker(TickInterval)
	defer tickTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-printTicker.C:
			s.logProgress()
		case <-tickTicker.C:
			s.runOneTick(ctx)
		}
	}
}

func (s *Scheduler) logProgress() {
	s.mu.Lock()
	n := len(s.fixtures)
	s.mu.Unlock()
	s.logger.Info("scheduler progress", "fixtures", n, "ticks_total", s.ticksTotal, "ticks_failed", s.ticksFailed)
}

// runOneTick implements spec §4.7's per-tick algorithm.
func (s *Scheduler) runOneTick(ctx context.Context) {
	tickStart := time.Now()
	state := program.TickState{Now: tickStart, LocalTime: tickStart.Local()}

	inbox := s.drainEvents()

	var batch []values.SetRequest
	s.mu.Lock()
	for _, f := range s.fixtures {
		s.dispatchEvents(f, inbox)
		if err := s.runFixture(f, state, &batch); err != nil {
			s.logger.Warn("program error", "fixture", f.Name, "error", err)
		}
	}
	s.mu.Unlock()

	metrics.TickDuration.Observe(time.Since(tickStart).Seconds())
	s.ticksTotal++

	if len(batch) == 0 {
		return
	}

	sendStart := time.Now()
	err := s.sender.PostSetRequests(ctx, batch)
	metrics.SendDuration.Observe(time.Since(sendStart).Seconds())

	success := err == nil
	if !success {
		s.ticksFailed++
		metrics.TicksFailedTotal.Inc()
		s.logger.Warn("upstream post failed", "error", err)
	}
	if s.bus != nil {
		s.bus.Publish(events.TickOutcomeEvent{Success: success, Timestamp: tickStart})
	}
}

// drainEvents empties the shared events FIFO once per tick, for every
// fixture's active program to filter over (spec §4.8 step 3: "No
// per-subscription pre-filtering is required at this stage - programs
// filter on drain").
func (s *Scheduler) drainEvents() []events.AddressedEvent {
	if s.fifo == nil {
		return nil
	}
	return s.fifo.DrainAll()
}

// dispatchEvents offers every drained event to f's active program, if it
// exposes an EventDispatcher, resolving each event's address to the alias
// its add_event_subscription calls were made against (spec §4.4, scenario
// 6). A program with no matching subscription silently ignores the event.
func (s *Scheduler) dispatchEvents(f *fixture.Fixture, inbox []events.AddressedEvent) {
	if len(inbox) == 0 {
		return
	}
	dispatcher, ok := f.ActiveProgram().(program.EventDispatcher)
	if !ok {
		return
	}
	for _, ae := range inbox {
		alias, ok := s.aliases[ae.Address]
		if !ok {
			continue
		}
		if err := dispatcher.DispatchEvent(alias, ae); err != nil {
			s.logger.Warn("event handler error", "fixture", f.Name, "address", ae.Address, "error", err)
		}
	}
}

// runFixture runs one fixture's active program, recovering from panics the
// same way a per-fixture try-wrapper would (spec §4.7 step 3, §7: per-tick
// program errors are fixture-scoped and never propagate).
func (s *Scheduler) runFixture(f *fixture.Fixture, state program.TickState, batch *[]values.SetRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{r}
		}
	}()
	return f.RunCurrentProgram(state, batch)
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("program panicked: %v", p.v) }
