package model

import "fmt"

// NumResults is the number of recorded communication points.
func (m *SimulationModel[T]) NumResults() int { return len(m.results) }

// Times returns the recorded communication-point times.
func (m *SimulationModel[T]) Times() []float64 {
	ts := make([]float64, len(m.results))
	for i, rec := range m.results {
		ts[i] = rec[0].Value()
	}
	return ts
}

// Column extracts the recorded trajectory of one variable by name.
// Aliases resolve through the index table: a negated alias yields the
// target's values with flipped sign, a structurally zero variable
// yields zeros.
func (m *SimulationModel[T]) Column(name string) ([]float64, error) {
	idx, ok := m.resultIndex[name]
	if !ok {
		return nil, fmt.Errorf("model %s: no recorded variable %q", m.Name, name)
	}
	out := make([]float64, len(m.results))
	if idx == 0 && name != "time" {
		return out, nil
	}
	sign := 1.0
	if idx < 0 {
		sign, idx = -1, -idx
	}
	for i, rec := range m.results {
		out[i] = sign * rec[idx].Value()
	}
	return out, nil
}

// ColumnAux extracts the secondary channel (derivative or spread) of
// one recorded variable; zero for representations without one.
func (m *SimulationModel[T]) ColumnAux(name string) ([]float64, error) {
	idx, ok := m.resultIndex[name]
	if !ok {
		return nil, fmt.Errorf("model %s: no recorded variable %q", m.Name, name)
	}
	out := make([]float64, len(m.results))
	if idx == 0 && name != "time" {
		return out, nil
	}
	if idx < 0 {
		idx = -idx
	}
	for i, rec := range m.results {
		out[i] = rec[idx].Aux()
	}
	return out, nil
}

// ResultIndex resolves a variable name to its signed record column:
// negative means "negate the target column", zero (for non-time
// names) means structurally zero.
func (m *SimulationModel[T]) ResultIndex(name string) (int, bool) {
	idx, ok := m.resultIndex[name]
	return idx, ok
}

// ColumnNames lists the record layout: time first, then every
// observable variable in declared order.
func (m *SimulationModel[T]) ColumnNames() []string {
	return append([]string(nil), m.recordNames...)
}

// Table flattens the results for export: column names plus one row of
// plain float64 values per communication point.
func (m *SimulationModel[T]) Table() ([]string, [][]float64) {
	rows := make([][]float64, len(m.results))
	for i, rec := range m.results {
		row := make([]float64, len(rec))
		for j, v := range rec {
			row[j] = v.Value()
		}
		rows[i] = row
	}
	return m.ColumnNames(), rows
}
