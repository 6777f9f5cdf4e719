package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/mpc"
	"github.com/gokhanalcan/tox/internal/ocp"
)

func sampleResult() *mpc.Result {
	return &mpc.Result{
		States: []ocp.State{
			{0.01, 0},
			{0.05, 0.4},
			{0.12, 0.7},
		},
		Actions: []ocp.Control{
			{5},
			{-2.5},
		},
		Costs: []float64{120.5, 80.25},
		Iters: []int{12, 4},
		Times: []float64{0, 0.05, 0.1},
		Metrics: map[string]float64{
			"control_effort": 3.75,
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.GetPreset("pendulum", "swingup")
	runID, err := st.Save(cfg, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "pendulum" {
		t.Errorf("expected model pendulum, got %s", meta.Model)
	}
	if meta.Seed != 1337 {
		t.Errorf("expected seed 1337, got %d", meta.Seed)
	}
	if meta.Horizon != 25 {
		t.Errorf("expected horizon 25, got %d", meta.Horizon)
	}
	if meta.Metrics["control_effort"] != 3.75 {
		t.Errorf("expected control_effort 3.75, got %f", meta.Metrics["control_effort"])
	}
	if meta.Metrics["final_cost"] != 80.25 {
		t.Errorf("expected final_cost 80.25, got %f", meta.Metrics["final_cost"])
	}
	if meta.Metrics["mean_iterations"] != 8 {
		t.Errorf("expected mean_iterations 8, got %f", meta.Metrics["mean_iterations"])
	}
}

func TestStoreTrajectoryRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := st.Save(config.GetPreset("pendulum", "swingup"), sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	states, actions, times, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}

	if len(states) != 3 || len(actions) != 2 || len(times) != 3 {
		t.Fatalf("got %d states, %d actions, %d times", len(states), len(actions), len(times))
	}
	if states[1][1] != 0.4 {
		t.Errorf("states[1][1] = %v, want 0.4", states[1][1])
	}
	if actions[1][0] != -2.5 {
		t.Errorf("actions[1][0] = %v, want -2.5", actions[1][0])
	}
	if times[2] != 0.1 {
		t.Errorf("times[2] = %v, want 0.1", times[2])
	}
}

func TestStoreTraceRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runID, err := st.Save(config.GetPreset("pendulum", "swingup"), sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	costs, iters, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if len(costs) != 2 || len(iters) != 2 {
		t.Fatalf("got %d costs, %d iters", len(costs), len(iters))
	}
	if costs[0] != 120.5 {
		t.Errorf("costs[0] = %v, want 120.5", costs[0])
	}
	if iters[1] != 4 {
		t.Errorf("iters[1] = %v, want 4", iters[1])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(config.GetPreset("pendulum", "swingup"), sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(config.GetPreset("pendulum", "swingup"), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "trajectory.csv", "trace.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.GetPreset("pendulum", "swingup")

	if err := ExportJSON(&buf, cfg, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if data.Model != "pendulum" {
		t.Errorf("model = %s", data.Model)
	}
	if data.Steps != 2 {
		t.Errorf("steps = %d, want 2", data.Steps)
	}
	if len(data.States) != 3 || len(data.Actions) != 2 {
		t.Errorf("got %d states, %d actions", len(data.States), len(data.Actions))
	}
	if data.Costs[1] != 80.25 {
		t.Errorf("costs[1] = %v", data.Costs[1])
	}
}

func TestExportSVG(t *testing.T) {
	states := [][]float64{{0.01, 0}, {0.05, 0.4}, {0.12, 0.7}}
	times := []float64{0, 0.05, 0.1}

	var buf bytes.Buffer
	if err := ExportSVG(&buf, states, times, []string{"theta", "omega"}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Error("output is not an svg document")
	}
	if got := strings.Count(out, "<path"); got != 2 {
		t.Errorf("expected 2 paths, got %d", got)
	}
	if !strings.Contains(out, ">theta</text>") || !strings.Contains(out, ">omega</text>") {
		t.Error("legend labels missing")
	}

	if err := ExportSVG(&buf, states[:1], times[:1], nil); err == nil {
		t.Error("expected error for a single sample")
	}
	if err := ExportSVG(&buf, states, times[:2], nil); err == nil {
		t.Error("expected error for mismatched times")
	}
}
