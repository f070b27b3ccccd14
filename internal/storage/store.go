package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oveklev/pidsim/internal/engine"
)

// Store persists simulation runs under a base directory, one sub-directory
// per run holding metadata.json and samples.csv.
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
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Seed      int64     `json:"seed"`
	Dt        float64   `json:"dt"`
	Duration  float64   `json:"duration"`
	Algorithm string    `json:"algorithm"`
	Metrics   Metrics   `json:"metrics"`
}

// Metrics is the serialized form of an engine metrics report.
type Metrics struct {
	IAE              float64  `json:"iae"`
	ISE              float64  `json:"ise"`
	ITAE             float64  `json:"itae"`
	OutputMin        float64  `json:"output_min"`
	OutputMax        float64  `json:"output_max"`
	TotalVariation   float64  `json:"total_variation"`
	RollingMean      float64  `json:"rolling_mean"`
	RollingStd       float64  `json:"rolling_std"`
	SettlingTime     *float64 `json:"settling_time,omitempty"`
	Overshoot        *float64 `json:"overshoot,omitempty"`
	SteadyStateError *float64 `json:"steady_state_error,omitempty"`
	RiseTime         *float64 `json:"rise_time,omitempty"`
}

func MetricsFromReport(r engine.Report) Metrics {
	return Metrics{
		IAE:              r.IAE,
		ISE:              r.ISE,
		ITAE:             r.ITAE,
		OutputMin:        r.OutputMin,
		OutputMax:        r.OutputMax,
		TotalVariation:   r.TotalVariation,
		RollingMean:      r.RollingMean,
		RollingStd:       r.RollingStd,
		SettlingTime:     r.Step.SettlingTime,
		Overshoot:        r.Step.Overshoot,
		SteadyStateError: r.Step.SteadyStateError,
		RiseTime:         r.Step.RiseTime,
	}
}

var sampleHeader = []string{"time", "setpoint", "value", "output", "error", "disturbance"}

func (s *Store) Save(algorithm string, dt, duration float64, seed int64, samples []engine.Sample, report engine.Report) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Seed:      seed,
		Dt:        dt,
		Duration:  duration,
		Algorithm: algorithm,
		Metrics:   MetricsFromReport(report),
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

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, samples); err != nil {
		return "", err
	}

	return runID, nil
}

// WriteCSV writes samples with a header row to w.
func WriteCSV(out io.Writer, samples []engine.Sample) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.FormatFloat(smp.Setpoint, 'f', 6, 64),
			strconv.FormatFloat(smp.Value, 'f', 6, 64),
			strconv.FormatFloat(smp.Output, 'f', 6, 64),
			strconv.FormatFloat(smp.Error, 'f', 6, 64),
			strconv.FormatFloat(smp.Disturbance, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

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

func (s *Store) LoadSamples(runID string) ([]engine.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []engine.Sample{}, nil
	}

	samples := make([]engine.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 6 {
			continue
		}
		vals := make([]float64, 6)
		ok := true
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		samples = append(samples, engine.Sample{
			Time:        vals[0],
			Setpoint:    vals[1],
			Value:       vals[2],
			Output:      vals[3],
			Error:       vals[4],
			Disturbance: vals[5],
		})
	}

	return samples, nil
}

// ExportJSON writes a run with its samples as a single JSON document.
func ExportJSON(w *json.Encoder, meta *RunMetadata, samples []engine.Sample) error {
	return w.Encode(struct {
		RunMetadata
		Samples []engine.Sample `json:"samples"`
	}{*meta, samples})
}
