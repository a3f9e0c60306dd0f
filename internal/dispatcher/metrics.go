package dispatcher

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Metrics collects dispatch statistics for one bus.
type Metrics struct {
	mu       sync.Mutex
	commands map[string]*CommandMetrics
	totals   CommandMetrics
}

// CommandMetrics holds counters for one command, or for all commands in
// Totals.
type CommandMetrics struct {
	Name       string        `json:"name,omitempty"`
	Dispatches uint64        `json:"dispatches"`
	Handled    uint64        `json:"handled"`
	Errors     uint64        `json:"errors"`
	Panics     uint64        `json:"panics"`
	Total      time.Duration `json:"totalNs"`
	Max        time.Duration `json:"maxNs"`
	Last       time.Time     `json:"last"`
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{commands: make(map[string]*CommandMetrics)}
}

func (m *Metrics) command(name string) *CommandMetrics {
	cm := m.commands[name]
	if cm == nil {
		cm = &CommandMetrics{Name: name}
		m.commands[name] = cm
	}
	return cm
}

// RecordDispatch records a completed dispatch.
func (m *Metrics) RecordDispatch(command string, d time.Duration, handled bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, cm := range []*CommandMetrics{m.command(command), &m.totals} {
		cm.Dispatches++
		cm.Total += d
		cm.Max = max(cm.Max, d)
		cm.Last = now
		if handled {
			cm.Handled++
		}
		if err != nil {
			cm.Errors++
		}
	}
}

// RecordPanic records a recovered handler panic. The resulting error is
// counted by RecordDispatch.
func (m *Metrics) RecordPanic(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.command(command).Panics++
	m.totals.Panics++
}

// TotalDispatches returns the number of dispatches of every command.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.Dispatches
}

// TotalPanics returns the number of recovered panics.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.Panics
}

// Totals returns the counters summed over all commands.
func (m *Metrics) Totals() CommandMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

// CommandStats returns a copy of the counters for command, or nil.
func (m *Metrics) CommandStats(command string) *CommandMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	cm, ok := m.commands[command]
	if !ok {
		return nil
	}
	c := *cm
	return &c
}

// TopCommands returns the n most dispatched commands. Ties sort by name.
func (m *Metrics) TopCommands(n int) []CommandMetrics {
	m.mu.Lock()
	out := make([]CommandMetrics, 0, len(m.commands))
	for _, cm := range m.commands {
		out = append(out, *cm)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b CommandMetrics) int {
		if c := cmp.Compare(b.Dispatches, a.Dispatches); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out[:min(n, len(out))]
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = make(map[string]*CommandMetrics)
	m.totals = CommandMetrics{}
}

// Average returns the mean dispatch duration.
func (cm CommandMetrics) Average() time.Duration {
	if cm.Dispatches == 0 {
		return 0
	}
	return cm.Total / time.Duration(cm.Dispatches)
}
