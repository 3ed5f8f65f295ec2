package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/atomsim/internal/world"
)

const (
	metadataFile    = "metadata.json"
	observablesFile = "observables.csv"
)

// Columns is the header of observables.csv.
var Columns = []string{
	"iteration", "time", "atoms", "temperature", "pressure",
	"area", "density", "energy", "piston_y",
}

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
	ID            string             `json:"id"`
	Preset        string             `json:"preset"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Dt            float64            `json:"dt"`
	Frames        int                `json:"frames"`
	StepsPerFrame int                `json:"steps_per_frame"`
	Steps         int                `json:"steps"`
	Atoms         int                `json:"atoms"`
	Removed       int                `json:"removed"`
	Gravity       bool               `json:"gravity"`
	Walls         bool               `json:"walls"`
	Piston        bool               `json:"piston"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Save writes a new run directory and returns its id. Non-finite metric
// values are dropped, since JSON cannot carry them.
func (s *Store) Save(meta RunMetadata, samples []world.Sample) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Preset, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Metrics = finite(meta.Metrics)

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, observablesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(Columns); err != nil {
		return "", err
	}
	for _, sample := range samples {
		if err := w.Write(row(sample)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func row(s world.Sample) []string {
	return []string{
		strconv.Itoa(s.Iteration),
		formatFloat(s.Time),
		strconv.Itoa(s.Atoms),
		formatFloat(s.Temperature),
		formatFloat(s.Pressure),
		formatFloat(s.Area),
		formatFloat(s.Density),
		formatFloat(s.Energy),
		formatFloat(s.PistonY),
	}
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]world.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, observablesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(Columns)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []world.Sample{}, nil
	}

	samples := make([]world.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		sample, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, i+2, err)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func parseRow(record []string) (world.Sample, error) {
	var s world.Sample
	var err error

	if s.Iteration, err = strconv.Atoi(record[0]); err != nil {
		return s, fmt.Errorf("column iteration: %w", err)
	}
	if s.Atoms, err = strconv.Atoi(record[2]); err != nil {
		return s, fmt.Errorf("column atoms: %w", err)
	}

	floats := map[int]*float64{
		1: &s.Time, 3: &s.Temperature, 4: &s.Pressure, 5: &s.Area,
		6: &s.Density, 7: &s.Energy, 8: &s.PistonY,
	}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(record[i], 64); err != nil {
			return s, fmt.Errorf("column %s: %w", Columns[i], err)
		}
	}
	return s, nil
}

// Column extracts one named observable from the samples.
func Column(samples []world.Sample, name string) ([]float64, error) {
	var field func(world.Sample) float64
	switch name {
	case "iteration":
		field = func(s world.Sample) float64 { return float64(s.Iteration) }
	case "time":
		field = func(s world.Sample) float64 { return s.Time }
	case "atoms":
		field = func(s world.Sample) float64 { return float64(s.Atoms) }
	case "temperature":
		field = func(s world.Sample) float64 { return s.Temperature }
	case "pressure":
		field = func(s world.Sample) float64 { return s.Pressure }
	case "area":
		field = func(s world.Sample) float64 { return s.Area }
	case "density":
		field = func(s world.Sample) float64 { return s.Density }
	case "energy":
		field = func(s world.Sample) float64 { return s.Energy }
	case "piston_y":
		field = func(s world.Sample) float64 { return s.PistonY }
	default:
		return nil, fmt.Errorf("unknown column: %s", name)
	}

	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = field(s)
	}
	return out, nil
}
