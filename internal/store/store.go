package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/mpc"
)

// Store persists closed-loop runs, one directory per run: metadata.json,
// trajectory.csv (time, states, applied actions) and trace.csv (per-step
// solver cost and iterations).
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
	ID             string             `json:"id"`
	Model          string             `json:"model"`
	Stepper        string             `json:"stepper"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Steps          int                `json:"steps"`
	Horizon        int                `json:"horizon"`
	SimulationStep float64            `json:"simulation_step"`
	Downsampling   int                `json:"downsampling"`
	MaxIter        int                `json:"max_iter"`
	CostTol        float64            `json:"cost_tol"`
	GoalState      []float64          `json:"goal_state"`
	Metrics        map[string]float64 `json:"metrics"`
}

func (s *Store) Save(cfg *config.Config, result *mpc.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Model, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metrics := make(map[string]float64, len(result.Metrics)+2)
	for k, v := range result.Metrics {
		metrics[k] = v
	}
	if n := len(result.Costs); n > 0 {
		metrics["final_cost"] = result.Costs[n-1]
	}
	if n := len(result.Iters); n > 0 {
		sum := 0
		for _, it := range result.Iters {
			sum += it
		}
		metrics["mean_iterations"] = float64(sum) / float64(n)
	}

	meta := RunMetadata{
		ID:             runID,
		Model:          cfg.Model,
		Stepper:        cfg.Stepper,
		Timestamp:      time.Now(),
		Seed:           cfg.Seed,
		Steps:          cfg.Steps,
		Horizon:        cfg.Horizon,
		SimulationStep: cfg.SimulationStep,
		Downsampling:   cfg.Downsampling,
		MaxIter:        cfg.MaxIter,
		CostTol:        cfg.CostTol,
		GoalState:      cfg.GoalState,
		Metrics:        metrics,
	}

	if err := s.writeMetadata(runDir, meta); err != nil {
		return "", err
	}
	if err := s.writeTrajectory(runDir, result); err != nil {
		return "", err
	}
	if err := s.writeTrace(runDir, result); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) writeMetadata(runDir string, meta RunMetadata) error {
	file, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// writeTrajectory lays out one row per recorded state. The final row has no
// applied action; its action columns are zero padding.
func (s *Store) writeTrajectory(runDir string, result *mpc.Result) error {
	file, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if len(result.States) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	numActions := 0
	if len(result.Actions) > 0 {
		numActions = len(result.Actions[0])
		for i := 0; i < numActions; i++ {
			header = append(header, fmt.Sprintf("u%d", i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if i < len(result.Actions) {
			for _, val := range result.Actions[i] {
				row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
			}
		} else {
			for j := 0; j < numActions; j++ {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (s *Store) writeTrace(runDir string, result *mpc.Result) error {
	file, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"step", "cost", "iterations"}); err != nil {
		return err
	}
	for i := range result.Costs {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(result.Costs[i], 'f', 6, 64),
			strconv.Itoa(result.Iters[i]),
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
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

// LoadTrajectory splits the stored rows back into states and actions using
// the header's x/u column names. The final padding row's actions are
// dropped, so len(states) == len(actions)+1 again.
func (s *Store) LoadTrajectory(runID string) (states, actions [][]float64, times []float64, err error) {
	file, err := os.Open(s.TrajectoryPath(runID))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, [][]float64{}, []float64{}, nil
	}

	header := records[0]
	numStates, numActions := 0, 0
	for _, col := range header {
		switch {
		case strings.HasPrefix(col, "x"):
			numStates++
		case strings.HasPrefix(col, "u"):
			numActions++
		}
	}

	rows := records[1:]
	times = make([]float64, 0, len(rows))
	states = make([][]float64, 0, len(rows))
	actions = make([][]float64, 0, len(rows))

	for i, record := range rows {
		if len(record) != 1+numStates+numActions {
			return nil, nil, nil, fmt.Errorf("store: run %s: row %d has %d fields, want %d",
				runID, i+1, len(record), 1+numStates+numActions)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, nil, err
		}
		times = append(times, t)

		state := make([]float64, numStates)
		for j := 0; j < numStates; j++ {
			if state[j], err = strconv.ParseFloat(record[1+j], 64); err != nil {
				return nil, nil, nil, err
			}
		}
		states = append(states, state)

		if i == len(rows)-1 {
			break
		}
		action := make([]float64, numActions)
		for j := 0; j < numActions; j++ {
			if action[j], err = strconv.ParseFloat(record[1+numStates+j], 64); err != nil {
				return nil, nil, nil, err
			}
		}
		actions = append(actions, action)
	}
	return states, actions, times, nil
}

func (s *Store) LoadTrace(runID string) (costs []float64, iters []int, err error) {
	file, err := os.Open(s.TracePath(runID))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	costs = make([]float64, 0, len(records))
	iters = make([]int, 0, len(records))
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 3 {
			return nil, nil, fmt.Errorf("store: run %s: trace row %d has %d fields", runID, i, len(record))
		}
		c, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, err
		}
		it, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, nil, err
		}
		costs = append(costs, c)
		iters = append(iters, it)
	}
	return costs, iters, nil
}

func (s *Store) TrajectoryPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "trajectory.csv")
}

func (s *Store) TracePath(runID string) string {
	return filepath.Join(s.baseDir, runID, "trace.csv")
}
