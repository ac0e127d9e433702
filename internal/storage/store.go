// Package storage keeps finished runs on disk, one directory per run
// holding metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/finfoot/internal/dynamo"
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrCorrupt     = errors.New("storage: corrupt run")
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0o755)
}

// Column names a stored state component and its canonical unit.
type Column struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Problem     string             `json:"problem"`
	Method      string             `json:"method"`
	Timestamp   time.Time          `json:"timestamp"`
	T0          float64            `json:"t0"`
	TEnd        float64            `json:"t_end"`
	RelTol      float64            `json:"rel_tol"`
	AbsTol      float64            `json:"abs_tol"`
	InitialStep string             `json:"initial_step,omitempty"`
	Params      map[string]string  `json:"params,omitempty"`
	Termination dynamo.Termination `json:"termination"`
	Stats       dynamo.Stats       `json:"stats"`
	ElapsedSec  float64            `json:"elapsed_sec"`
	Components  []Column           `json:"components"`
	Metrics     map[string]float64 `json:"metrics"`
	// Points is the number of stored trajectory points.
	Points int `json:"points"`
}

// Columns describes the components of l.
func Columns(l *dynamo.Layout) []Column {
	out := make([]Column, l.Len())
	for i, c := range l.Components() {
		out[i] = Column{Name: c.Name, Unit: c.Unit().Symbol}
	}
	return out
}

// Save writes meta and traj under a new run directory and returns its
// id. ID, Timestamp, Components and Points are filled in from traj.
func (s *Store) Save(meta RunMetadata, traj *dynamo.Trajectory) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	meta.Timestamp = s.now().UTC()
	meta.Components = Columns(traj.Layout())
	meta.Points = traj.Len()
	meta.Metrics = finite(meta.Metrics)

	runDir, id, err := s.newRunDir(meta)
	if err != nil {
		return "", err
	}
	meta.ID = id

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), meta.Components, traj); err != nil {
		return "", err
	}
	return id, nil
}

// newRunDir creates <problem>_<method>_<timestamp>, suffixed when a run
// with the same name exists.
func (s *Store) newRunDir(meta RunMetadata) (string, string, error) {
	base := fmt.Sprintf("%s_%s_%s", meta.Problem, meta.Method, meta.Timestamp.Format("20060102T150405"))
	id := base
	for n := 2; ; n++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, id, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func header(cols []Column) []string {
	out := []string{"time [s]"}
	for _, c := range cols {
		out = append(out, fmt.Sprintf("%s [%s]", c.Name, c.Unit))
	}
	return out
}

func writeStates(path string, cols []Column, traj *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header(cols)); err != nil {
		return err
	}
	row := make([]string, len(cols)+1)
	for i := 0; i < traj.Len(); i++ {
		p := traj.At(i)
		row[0] = formatFloat(p.Time.Value())
		for j := range cols {
			row[j+1] = formatFloat(p.State.Raw(j))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// finite drops metrics JSON cannot encode.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// List returns the stored runs, oldest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, runID, err)
	}
	return &meta, nil
}

// States is a stored trajectory in canonical units.
type States struct {
	Columns []Column
	Times   []float64
	Rows    [][]float64
}

// Series returns the named component across all rows.
func (s *States) Series(name string) ([]float64, bool) {
	for j, c := range s.Columns {
		if c.Name == name {
			out := make([]float64, len(s.Rows))
			for i, row := range s.Rows {
				out[i] = row[j]
			}
			return out, true
		}
	}
	return nil, false
}

func (s *Store) LoadStates(runID string) (*States, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, runID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no header", ErrCorrupt, runID)
	}

	out := &States{}
	for _, h := range records[0][1:] {
		out.Columns = append(out.Columns, parseColumn(h))
	}
	for i, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: row %d: %w", ErrCorrupt, runID, i+1, err)
			}
			vals[j] = v
		}
		out.Times = append(out.Times, vals[0])
		out.Rows = append(out.Rows, vals[1:])
	}
	return out, nil
}

// parseColumn splits "name [unit]".
func parseColumn(h string) Column {
	i := strings.LastIndex(h, " [")
	if i < 0 || !strings.HasSuffix(h, "]") {
		return Column{Name: h}
	}
	return Column{Name: h[:i], Unit: h[i+2 : len(h)-1]}
}
