package equ

// Direction restricts which sign changes of a crossing signal count
// as events, so a signal does not immediately re-trigger on the far
// side of a localized crossing.
type Direction int

const (
	// Rising fires when the residual crosses zero from below
	// (the predicate becomes true).
	Rising Direction = iota
	// Falling fires when the residual crosses zero from above.
	Falling
	// Either fires on any sign change.
	Either
)

func (d Direction) String() string {
	switch d {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "either"
	}
}

// SignalSpec describes one registered crossing signal.
type SignalSpec struct {
	ID    int
	Label string
	Dir   Direction
}

// Monitor collects the continuous residual of every crossing signal
// during an evaluator call. The integrator's root finder reads the
// residuals to localize event times; the boolean decision inside the
// equations never depends on the monitor.
type Monitor struct {
	specs []SignalSpec
	res   []float64
}

func NewMonitor(specs []SignalSpec) *Monitor {
	return &Monitor{specs: specs, res: make([]float64, len(specs))}
}

func (m *Monitor) record(id int, r float64) { m.res[id] = r }

// Residuals returns the residuals of the most recent evaluation,
// indexed by signal ID. The slice is reused across calls.
func (m *Monitor) Residuals() []float64 { return m.res }

func (m *Monitor) Specs() []SignalSpec { return m.specs }

func (m *Monitor) Reset() {
	for i := range m.res {
		m.res[i] = 0
	}
}
