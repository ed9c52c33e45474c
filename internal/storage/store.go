package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/nhuang-x/nbody-simulation/internal/dynamo"
	"github.com/nhuang-x/nbody-simulation/internal/physics"
	"github.com/nhuang-x/nbody-simulation/internal/universe"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	finalFile      = "final.txt"
)

var ErrRunNotFound = errors.New("storage: run not found")

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
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	Solver      string             `json:"solver"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	TotalTime   float64            `json:"total_time"`
	Steps       int                `json:"steps"`
	Bodies      int                `json:"bodies"`
	Radius      float64            `json:"radius"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Trajectory is a recorded run read back from disk. Each state row holds
// x, y, vx, vy per body in column order.
type Trajectory struct {
	Labels []string
	Times  []float64
	States [][]float64
}

// Bodies returns the number of bodies per state row.
func (t *Trajectory) Bodies() int { return len(t.Labels) }

// Series extracts column col (0=x 1=y 2=vx 3=vy) of body over time.
func (t *Trajectory) Series(body, col int) []float64 {
	out := make([]float64, 0, len(t.States))
	k := 4*body + col
	for _, row := range t.States {
		if k < len(row) {
			out = append(out, row[k])
		}
	}
	return out
}

// Save writes a run directory for meta. ID, Timestamp and the result-derived
// fields of meta are filled in here.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result, final physics.View, radius float64) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", sanitize(meta.Source), now.UnixNano())
	meta.Timestamp = now
	meta.Bodies = final.Len()
	meta.Radius = radius
	if result != nil {
		meta.Steps = result.Steps
		meta.EnergyDrift = result.EnergyDrift
		meta.Metrics = result.Metrics
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), result, final); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, finalFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := universe.WriteReport(f, radius, final); err != nil {
		return "", err
	}

	return meta.ID, f.Close()
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// encoding/json rejects NaN and Inf; a diverged run stores them as -1.
	if math.IsNaN(meta.EnergyDrift) || math.IsInf(meta.EnergyDrift, 0) {
		meta.EnergyDrift = -1
	}
	clean := make(map[string]float64, len(meta.Metrics))
	for k, v := range meta.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = -1
		}
		clean[k] = v
	}
	meta.Metrics = clean

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	return f.Close()
}

func writeTrajectory(path string, result *dynamo.Result, final physics.View) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"time"}
	for i := 0; i < final.Len(); i++ {
		label := final.At(i).Tag()
		if label == "" {
			label = strconv.Itoa(i)
		}
		header = append(header, "x_"+label, "y_"+label, "vx_"+label, "vy_"+label)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	if result != nil {
		for i := range result.States {
			row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
			for _, val := range result.States[i] {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns every stored run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// Latest returns the most recently stored run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no runs stored", ErrRunNotFound)
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	traj := &Trajectory{Times: []float64{}, States: [][]float64{}}
	if len(records) == 0 {
		return traj, nil
	}

	header := records[0]
	for j := 1; j+3 < len(header); j += 4 {
		traj.Labels = append(traj.Labels, header[j][len("x_"):])
	}

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad time %q: %w", runID, record[0], err)
		}

		state := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: bad value %q: %w", runID, field, err)
			}
			state = append(state, val)
		}
		traj.Times = append(traj.Times, t)
		traj.States = append(traj.States, state)
	}

	return traj, nil
}

// LoadFinal reads back the end-of-run report as a universe.
func (s *Store) LoadFinal(runID string) (*universe.Universe, error) {
	u, err := universe.Load(filepath.Join(s.baseDir, runID, finalFile))
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return u, err
}

func sanitize(name string) string {
	if name == "" {
		return "run"
	}
	out := []rune(filepath.Base(name))
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// ExportData is the JSON form of a stored run. NaN and Inf samples of a
// diverged run are encoded as null.
type ExportData struct {
	RunMetadata
	Labels []string     `json:"labels"`
	Times  []*float64   `json:"times"`
	States [][]*float64 `json:"states"`
}

func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &values[i]
	}
	return out
}

func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Labels:      traj.Labels,
		Times:       nullable(traj.Times),
		States:      make([][]*float64, len(traj.States)),
	}
	for i, state := range traj.States {
		data.States[i] = nullable(state)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies the stored trajectory to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
