package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "pendulum" {
		t.Errorf("expected model pendulum, got %s", cfg.Model)
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if cfg.Horizon <= 0 {
		t.Error("horizon should be positive")
	}
	if cfg.SimulationStep <= 0 {
		t.Error("simulation step should be positive")
	}
	if len(cfg.InitState) != 2 {
		t.Errorf("expected 2 initial state entries, got %d", len(cfg.InitState))
	}
	if cfg.GoalState[0] != math.Pi {
		t.Errorf("expected upright goal angle, got %f", cfg.GoalState[0])
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum", "swingup")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Horizon != 25 {
		t.Errorf("expected horizon 25, got %d", cfg.Horizon)
	}
	if cfg.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", cfg.Steps)
	}
	if cfg.ActionLow[0] != -5 || cfg.ActionHigh[0] != 5 {
		t.Errorf("expected action bounds [-5,5], got [%f,%f]", cfg.ActionLow[0], cfg.ActionHigh[0])
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("pendulum", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "swingup"); cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("pendulum", "swingup")
	cfg.Horizon = 999
	cfg.InitState[0] = 42

	fresh := GetPreset("pendulum", "swingup")
	if fresh.Horizon == 999 {
		t.Error("preset horizon was mutated through a returned config")
	}
	if fresh.InitState[0] == 42 {
		t.Error("preset init state was mutated through a returned config")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets("pendulum")
	if len(names) == 0 {
		t.Error("expected presets for pendulum")
	}

	if names := ListPresets("nonexistent"); names != nil {
		t.Error("expected nil for nonexistent model")
	}

	if models := PresetModels(); len(models) != 4 {
		t.Errorf("expected 4 preset models, got %d", len(models))
	}
}

func TestDefaultFor(t *testing.T) {
	if cfg := DefaultFor("pendulum"); cfg.Model != "pendulum" || cfg.GoalState[0] != math.Pi {
		t.Errorf("pendulum scenario: model %q, goal %v", cfg.Model, cfg.GoalState)
	}
	if cfg := DefaultFor("cartpole"); cfg.Model != "cartpole" || len(cfg.InitState) != 4 {
		t.Errorf("cartpole scenario: model %q, init %v", cfg.Model, cfg.InitState)
	}
	if cfg := DefaultFor("double_pendulum"); cfg.Model != "double_pendulum" || len(cfg.WrapAngles) != 2 {
		t.Errorf("double pendulum scenario: model %q, wrap %v", cfg.Model, cfg.WrapAngles)
	}
	if cfg := DefaultFor("drone"); cfg.Model != "drone" || cfg.ActionLow[0] != 0 {
		t.Errorf("drone scenario: model %q, action low %v", cfg.Model, cfg.ActionLow)
	}
	if cfg := DefaultFor("rocket"); cfg.Model != "rocket" {
		t.Errorf("unknown model kept %q, want rocket", cfg.Model)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := "horizon: 40\nseed: 7\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Horizon != 40 {
		t.Errorf("expected horizon 40 from file, got %d", cfg.Horizon)
	}
	if cfg.Seed != 7 {
		t.Errorf("expected seed 7 from file, got %d", cfg.Seed)
	}
	if cfg.Steps != DefaultSteps {
		t.Errorf("expected default steps %d, got %d", DefaultSteps, cfg.Steps)
	}
	if cfg.Model != "pendulum" {
		t.Errorf("expected default model, got %s", cfg.Model)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	want := GetPreset("cartpole", "balance")
	want.Params = map[string]float64{"pole_length": 0.75}
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.Model != "cartpole" {
		t.Errorf("expected cartpole, got %s", got.Model)
	}
	if got.Horizon != want.Horizon {
		t.Errorf("horizon: want %d, got %d", want.Horizon, got.Horizon)
	}
	if len(got.StateWeights) != 4 {
		t.Errorf("expected 4 state weights, got %d", len(got.StateWeights))
	}
	if got.Params["pole_length"] != 0.75 {
		t.Errorf("expected pole_length 0.75, got %f", got.Params["pole_length"])
	}
	if len(got.WrapAngles) != 1 || got.WrapAngles[0] != 2 {
		t.Errorf("wrap angles not preserved: %v", got.WrapAngles)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
