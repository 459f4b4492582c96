package led

import (
	"log/slog"
	"sync"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
)

// degradedThreshold is the number of failures among the last failureWindow
// ticks at which the status LED switches from solid to blinking.
const (
	failureWindow     = 10
	degradedThreshold = 2
)

// Manager subscribes to scheduler tick outcomes and drives the system LED:
// solid while ticks are succeeding, blinking once recent ticks start
// failing.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu      sync.Mutex
	history []bool // ring of recent tick successes, newest last
}

// NewManager creates a new LED manager that reacts to scheduler tick outcomes.
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start begins listening for tick outcome events.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.TickOutcomeEvent) {
		m.handleEvent(e)
	})
	m.logger.Info("LED manager started")
}

// Stop stops the LED manager and unsubscribes from events.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.logger.Info("LED manager stopped")
}

// handleEvent records a single tick outcome and updates the system LED.
func (m *Manager) handleEvent(event events.TickOutcomeEvent) {
	m.mu.Lock()
	m.history = append(m.history, event.Success)
	if len(m.history) > failureWindow {
		m.history = m.history[len(m.history)-failureWindow:]
	}
	failures := 0
	for _, ok := range m.history {
		if !ok {
			failures++
		}
	}
	m.mu.Unlock()

	m.logger.Debug("Tick outcome recorded", "success", event.Success, "recent_failures", failures)
	m.updateSystemLED(failures)
}

// updateSystemLED sets the system LED pattern based on the recent failure count.
func (m *Manager) updateSystemLED(failures int) {
	if failures < degradedThreshold {
		if err := m.controller.Set("system", true, "solid"); err != nil {
			m.logger.Warn("Failed to set system LED to solid", "error", err)
		}
		return
	}

	if err := m.controller.Set("system", true, "blink"); err != nil {
		m.logger.Warn("Failed to set system LED to blink", "error", err)
	}
	m.logger.Debug("Recent ticks degraded, system LED set to blink", "recent_failures", failures)
}

// GetController returns the underlying LED controller for direct API access.
func (m *Manager) GetController() Controller {
	return m.controller
}
