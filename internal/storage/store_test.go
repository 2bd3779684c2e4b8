package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleRun() (RunMetadata, []string, [][]float64) {
	meta := RunMetadata{
		Model:          "geartrain",
		Representation: "float64",
		Integrator:     "rk45",
		StopTime:       4,
		Interval:       0.1,
		Steps:          40,
		EventTimes:     []float64{2},
	}
	columns := []string{"time", "phi", "w"}
	rows := [][]float64{
		{0, 0, 0},
		{0.1, 0.014, 0.28},
		{0.2, 0.056, 0.56},
	}
	return meta, columns, rows
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	meta, columns, rows := sampleRun()
	id, err := st.Save(meta, columns, rows)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(id, "geartrain_") {
		t.Errorf("id = %q, want geartrain_ prefix", id)
	}

	got, err := st.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Model != "geartrain" || got.Steps != 40 {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if len(got.EventTimes) != 1 || got.EventTimes[0] != 2 {
		t.Errorf("event times = %v, want [2]", got.EventTimes)
	}

	cols, data, err := st.LoadResults(id)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	if len(cols) != 3 || cols[1] != "phi" {
		t.Errorf("columns = %v", cols)
	}
	if len(data) != 3 {
		t.Fatalf("rows = %d, want 3", len(data))
	}
	if math.Abs(data[2][2]-0.56) > 1e-15 {
		t.Errorf("value = %g, want 0.56 exactly through the round trip", data[2][2])
	}
}

func TestListSkipsUnreadableEntries(t *testing.T) {
	base := t.TempDir()
	st := New(base)
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.Mkdir(filepath.Join(base, "junk"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	meta, columns, rows := sampleRun()
	if _, err := st.Save(meta, columns, rows); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta.Model = "bouncer"
	meta.ID = ""
	meta.Timestamp = meta.Timestamp.AddDate(0, 0, 1)
	if _, err := st.Save(meta, columns, rows); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("runs = %d, want 2", len(runs))
	}
}

func TestListEmptyStore(t *testing.T) {
	st := New(t.TempDir() + "/never-created")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %d, want 0", len(runs))
	}
}

func TestWriteCSVAndJSON(t *testing.T) {
	meta, columns, rows := sampleRun()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, columns, rows); err != nil {
		t.Fatalf("csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("csv lines = %d, want header + 3 rows", len(lines))
	}
	if lines[0] != "time,phi,w" {
		t.Errorf("header = %q", lines[0])
	}

	buf.Reset()
	if err := WriteJSON(&buf, meta, columns, rows); err != nil {
		t.Fatalf("json: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.Metadata.Model != "geartrain" || len(data.Rows) != 3 {
		t.Errorf("export mismatch: %+v", data.Metadata)
	}
}
