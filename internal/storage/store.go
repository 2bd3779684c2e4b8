// Package storage persists finished runs: one directory per run with
// a metadata.json and the recorded trajectory as results.csv, plus the
// CSV/JSON export helpers the CLI uses for one-off dumps.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string    `json:"id"`
	Model          string    `json:"model"`
	Representation string    `json:"representation"`
	Integrator     string    `json:"integrator"`
	Timestamp      time.Time `json:"timestamp"`
	StartTime      float64   `json:"start_time"`
	StopTime       float64   `json:"stop_time"`
	Interval       float64   `json:"interval"`
	Tolerance      float64   `json:"tolerance"`
	Steps          int       `json:"steps"`
	Rejected       int       `json:"rejected"`
	Evaluations    int       `json:"evaluations"`
	EventTimes     []float64 `json:"event_times,omitempty"`
}

// Save writes one run directory and returns its ID.
func (s *Store) Save(meta RunMetadata, columns []string, rows [][]float64) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "results.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := WriteCSV(csvFile, columns, rows); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List reads the metadata of every stored run; unreadable entries are
// skipped rather than failing the listing.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadResults reads back a stored trajectory: the column names and one
// row per communication point.
func (s *Store) LoadResults(runID string) ([]string, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "results.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("storage: run %s has an empty results file", runID)
	}

	columns := records[0]
	rows := make([][]float64, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: run %s: bad value %q: %w", runID, field, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
