package led

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
)

// Mock controller for testing.
type mockController struct {
	mu       sync.Mutex
	setCalls []setCall
}

type setCall struct {
	ledType string
	enabled bool
	pattern string
}

func (m *mockController) Set(ledType string, enabled bool, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = append(m.setCalls, setCall{ledType, enabled, pattern})
	return nil
}

func (m *mockController) getSetCalls() []setCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]setCall(nil), m.setCalls...)
}

func (m *mockController) Available() []string {
	return []string{"system", "user"}
}

func (m *mockController) Patterns() []string {
	return []string{"solid", "blink"}
}

func TestManager_TicksSucceeding(t *testing.T) {
	ctrl := &mockController{}
	bus := events.NewBus()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mgr := NewManager(ctrl, bus, logger)
	mgr.Start()
	defer mgr.Stop()

	for i := 0; i < 3; i++ {
		bus.Publish(events.TickOutcomeEvent{Success: true, Timestamp: time.Now()})
	}

	time.Sleep(50 * time.Millisecond)

	calls := ctrl.getSetCalls()
	if len(calls) == 0 {
		t.Fatal("No LED control calls made")
	}

	lastCall := calls[len(calls)-1]
	if lastCall.pattern != "solid" {
		t.Errorf("Expected solid pattern when ticks succeed, got %q", lastCall.pattern)
	}
}

func TestManager_TicksDegraded(t *testing.T) {
	ctrl := &mockController{}
	bus := events.NewBus()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mgr := NewManager(ctrl, bus, logger)
	mgr.Start()
	defer mgr.Stop()

	bus.Publish(events.TickOutcomeEvent{Success: true, Timestamp: time.Now()})
	bus.Publish(events.TickOutcomeEvent{Success: false, Timestamp: time.Now()})
	bus.Publish(events.TickOutcomeEvent{Success: false, Timestamp: time.Now()})

	time.Sleep(50 * time.Millisecond)

	calls := ctrl.getSetCalls()
	if len(calls) == 0 {
		t.Fatal("No LED control calls made")
	}

	lastCall := calls[len(calls)-1]
	if lastCall.pattern != "blink" {
		t.Errorf("Expected blink pattern when ticks are failing, got %q", lastCall.pattern)
	}
}

func TestManager_GetController(t *testing.T) {
	ctrl := &mockController{}
	bus := events.NewBus()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mgr := NewManager(ctrl, bus, logger)

	if got := mgr.GetController(); got != ctrl {
		t.Error("GetController() did not return the original controller")
	}
}
