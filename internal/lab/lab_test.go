package lab

import (
	"context"
	"math"
	"testing"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/ocp"
)

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"pendulum", "cartpole", "double_pendulum", "drone"} {
		sys, err := r.GetSystem(name)
		if err != nil {
			t.Fatalf("GetSystem(%s): %v", name, err)
		}
		if sys.StateDim() < 2 {
			t.Errorf("%s state dim = %d", name, sys.StateDim())
		}
	}

	for _, name := range []string{"euler", "rk4", "rk45"} {
		if _, err := r.GetStepper(name); err != nil {
			t.Fatalf("GetStepper(%s): %v", name, err)
		}
	}

	systems := r.ListSystems()
	want := []string{"cartpole", "double_pendulum", "drone", "pendulum"}
	if len(systems) != len(want) {
		t.Fatalf("ListSystems() = %v", systems)
	}
	for i, name := range want {
		if systems[i] != name {
			t.Errorf("ListSystems()[%d] = %s, want %s", i, systems[i], name)
		}
	}
	if steppers := r.ListSteppers(); len(steppers) != 3 {
		t.Errorf("ListSteppers() = %v", steppers)
	}
}

func TestRegistryUnknownNames(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GetSystem("rocket"); err == nil {
		t.Error("expected error for unknown model")
	}
	if _, err := r.GetStepper("dopri5"); err == nil {
		t.Error("expected error for unknown stepper")
	}
}

func TestExperimentAppliesParams(t *testing.T) {
	cfg := config.GetPreset("pendulum", "swingup")
	cfg.Params = map[string]float64{"mass": 2.5, "length": 0.8}

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	params := e.System().(ocp.Configurable).GetParams()
	if params["mass"] != 2.5 {
		t.Errorf("mass = %v, want 2.5", params["mass"])
	}
	if params["length"] != 0.8 {
		t.Errorf("length = %v, want 0.8", params["length"])
	}
}

func TestExperimentRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown model", func(c *config.Config) { c.Model = "rocket" }},
		{"unknown stepper", func(c *config.Config) { c.Stepper = "dopri5" }},
		{"unknown param", func(c *config.Config) { c.Params = map[string]float64{"warp": 9} }},
		{"goal dimension", func(c *config.Config) { c.GoalState = []float64{0} }},
		{"init dimension", func(c *config.Config) { c.InitState = []float64{0, 0, 0} }},
		{"action weights", func(c *config.Config) { c.ActionWeights = []float64{1, 1} }},
		{"crossed action bounds", func(c *config.Config) { c.ActionLow = []float64{6} }},
		{"zero horizon", func(c *config.Config) { c.Horizon = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetPreset("pendulum", "swingup")
			tt.mutate(cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected assembly to fail")
			}
		})
	}
}

func TestExperimentRuns(t *testing.T) {
	cfg := config.GetPreset("pendulum", "stabilize")
	cfg.Steps = 5
	cfg.Horizon = 10
	cfg.MaxIter = 5

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Actions) != 5 {
		t.Errorf("expected 5 actions, got %d", len(result.Actions))
	}
	if len(result.States) != 6 {
		t.Errorf("expected 6 states, got %d", len(result.States))
	}

	for _, key := range []string{"control_effort", "goal_distance", "saturation", "energy"} {
		if _, ok := result.Metrics[key]; !ok {
			t.Errorf("missing metric %q", key)
		}
	}
}

func TestExperimentSolve(t *testing.T) {
	cfg := config.GetPreset("pendulum", "stabilize")
	cfg.Horizon = 10
	cfg.MaxIter = 10

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	sol, err := e.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(sol.Trace) < 2 {
		t.Fatalf("trace has %d entries, want at least 2", len(sol.Trace))
	}
	last := sol.Trace[len(sol.Trace)-1]
	if last >= sol.Trace[0] {
		t.Errorf("cost did not improve: %v -> %v", sol.Trace[0], last)
	}
	if sol.Reference.Horizon() != 10 {
		t.Errorf("reference horizon = %d, want 10", sol.Reference.Horizon())
	}
}

func TestRunSweep(t *testing.T) {
	cfg := config.GetPreset("pendulum", "stabilize")
	cfg.Steps = 4
	cfg.Horizon = 8
	cfg.MaxIter = 5

	points, err := RunSweep(context.Background(), cfg, Sweep{
		Param: "mass",
		Min:   0.9,
		Max:   1.1,
		Count: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, pt := range points {
		want := 0.9 + 0.1*float64(i)
		if math.Abs(pt.Value-want) > 1e-9 {
			t.Errorf("point %d value = %v, want %v", i, pt.Value, want)
		}
		if pt.Err != nil {
			t.Errorf("point %d failed: %v", i, pt.Err)
			continue
		}
		if pt.FinalCost <= 0 {
			t.Errorf("point %d final cost = %v", i, pt.FinalCost)
		}
		if _, ok := pt.Metrics["goal_distance"]; !ok {
			t.Errorf("point %d missing goal_distance metric", i)
		}
	}

	if cfg.Params != nil {
		t.Errorf("sweep mutated the base config params: %v", cfg.Params)
	}
}

func TestRunSweepRejectsBadGrids(t *testing.T) {
	cfg := config.GetPreset("pendulum", "stabilize")
	cfg.Steps = 2
	cfg.Horizon = 5
	cfg.MaxIter = 3
	ctx := context.Background()

	if _, err := RunSweep(ctx, cfg, Sweep{Param: "mass", Min: 0.5, Max: 1.5, Count: 1}); err == nil {
		t.Error("expected error for single-point grid")
	}
	if _, err := RunSweep(ctx, cfg, Sweep{Param: "mass", Min: 2, Max: 1, Count: 3}); err == nil {
		t.Error("expected error for empty range")
	}
	if _, err := RunSweep(ctx, cfg, Sweep{Param: "flux", Min: 0, Max: 1, Count: 3}); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := RunSweep(ctx, cfg, Sweep{Param: "mass", Min: 0, Max: 1, Count: 3}); err != nil {
		t.Errorf("valid grid rejected: %v", err)
	}
}
