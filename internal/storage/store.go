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

	"github.com/rs/xid"

	"github.com/san-kum/fuelcycle/internal/sim"
)

const (
	metadataFile    = "metadata.json"
	inventoriesFile = "inventories.csv"
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
	ID           string             `json:"id"`
	Scenario     string             `json:"scenario"`
	Timestamp    time.Time          `json:"timestamp"`
	Components   []string           `json:"components"`
	TBR          *float64           `json:"tbr"`
	IStartup     float64            `json:"i_startup"`
	DoublingTime *float64           `json:"doubling_time"`
	Attempts     int                `json:"attempts"`
	Outcome      string             `json:"outcome"`
	Converged    bool               `json:"converged"`
	Steps        int                `json:"steps"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes a run directory named <scenario>_<xid> holding the metadata
// and the inventory series. A NaN TBR (no blanket) or doubling time is
// stored as null.
func (s *Store) Save(scenario string, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", scenario, xid.New().String())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Scenario:     scenario,
		Timestamp:    time.Now(),
		Components:   result.Names,
		TBR:          optional(result.TBR),
		IStartup:     result.IStartup,
		DoublingTime: optional(result.DoublingTime),
		Attempts:     len(result.Attempts),
		Outcome:      result.Outcome.String(),
		Converged:    result.Converged,
		Steps:        result.StepsTaken,
		Metrics:      finite(result.Metrics),
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeInventories(filepath.Join(runDir, inventoriesFile), result); err != nil {
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

func writeInventories(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"time"}, result.Names...)
	header = append(header, "dpa", "trap_density")
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{format(result.Times[i])}
		for _, val := range result.States[i] {
			row = append(row, format(val))
		}
		row = append(row, format(result.DPA[i]), format(result.Traps[i]))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Series is a run's inventory table read back from disk.
type Series struct {
	Names  []string
	Times  []float64
	States [][]float64
	DPA    []float64
	Traps  []float64
}

// Column returns one component's inventory column, or nil.
func (s *Series) Column(name string) []float64 {
	for i, n := range s.Names {
		if n != name {
			continue
		}
		col := make([]float64, len(s.States))
		for k, row := range s.States {
			col[k] = row[i]
		}
		return col
	}
	return nil
}

func (s *Store) LoadInventories(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, inventoriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty inventory file", runID)
	}

	header := records[0]
	if len(header) < 3 {
		return nil, fmt.Errorf("%s: malformed header %v", runID, header)
	}
	n := len(header) - 3
	series := &Series{Names: header[1 : 1+n]}

	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}
		series.Times = append(series.Times, vals[0])
		series.States = append(series.States, vals[1:1+n])
		series.DPA = append(series.DPA, vals[1+n])
		series.Traps = append(series.Traps, vals[2+n])
	}
	return series, nil
}

// finite drops NaN and infinite metrics, which JSON cannot carry.
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
