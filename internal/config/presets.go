package config

import (
	"math"
	"sort"
)

var presets = map[string]map[string]*Config{
	"pendulum": {
		"swingup": {
			Model: "pendulum", Stepper: "rk4",
			Steps: 100, Horizon: 25,
			SimulationStep: 0.01, Downsampling: 5,
			MaxIter: 25, CostTol: 1e-3,
			Seed: 1337, FeedforwardScale: 1e-2,
			InitState: []float64{0.01, 0}, GoalState: []float64{math.Pi, 0},
			ActionLow: []float64{-5}, ActionHigh: []float64{5},
			StateWeights:  []float64{1.0, 0.1},
			ActionWeights: []float64{1e-3},
			FinalWeights:  []float64{1.0, 0.1},
			WrapAngles:    []int{0},
		},
		"stabilize": {
			Model: "pendulum", Stepper: "rk4",
			Steps: 60, Horizon: 15,
			SimulationStep: 0.01, Downsampling: 5,
			MaxIter: 15, CostTol: 1e-3,
			Seed: 1337, FeedforwardScale: 1e-3,
			InitState: []float64{math.Pi - 0.3, 0}, GoalState: []float64{math.Pi, 0},
			ActionLow: []float64{-5}, ActionHigh: []float64{5},
			StateWeights:  []float64{1.0, 0.1},
			ActionWeights: []float64{1e-2},
			FinalWeights:  []float64{1.0, 0.1},
			WrapAngles:    []int{0},
		},
	},
	"cartpole": {
		"balance": {
			Model: "cartpole", Stepper: "rk4",
			Steps: 80, Horizon: 20,
			SimulationStep: 0.01, Downsampling: 5,
			MaxIter: 20, CostTol: 1e-3,
			Seed: 1337, FeedforwardScale: 1e-3,
			InitState: []float64{0, 0, 0.1, 0}, GoalState: []float64{0, 0, 0, 0},
			ActionLow: []float64{-10}, ActionHigh: []float64{10},
			StateWeights:  []float64{1.0, 0.1, 10.0, 0.1},
			ActionWeights: []float64{1e-2},
			FinalWeights:  []float64{1.0, 0.1, 10.0, 0.1},
			WrapAngles:    []int{2},
		},
		"swingup": {
			Model: "cartpole", Stepper: "rk4",
			Steps: 150, Horizon: 50,
			SimulationStep: 0.01, Downsampling: 5,
			MaxIter: 50, CostTol: 1e-3,
			Seed: 1337, FeedforwardScale: 1e-2,
			InitState: []float64{0, 0, math.Pi, 0}, GoalState: []float64{0, 0, 0, 0},
			ActionLow: []float64{-10}, ActionHigh: []float64{10},
			StateWeights:  []float64{0.1, 0.1, 1.0, 0.1},
			ActionWeights: []float64{1e-3},
			FinalWeights:  []float64{1.0, 1.0, 10.0, 1.0},
			WrapAngles:    []int{2},
		},
	},
	"double_pendulum": {
		"balance": {
			Model: "double_pendulum", Stepper: "rk4",
			Steps: 80, Horizon: 30,
			SimulationStep: 0.01, Downsampling: 5,
			MaxIter: 30, CostTol: 1e-3,
			Seed: 1337, FeedforwardScale: 1e-3,
			InitState: []float64{math.Pi - 0.05, math.Pi, 0, 0},
			GoalState: []float64{math.Pi, math.Pi, 0, 0},
			ActionLow: []float64{-25}, ActionHigh: []float64{25},
			StateWeights:  []float64{10.0, 10.0, 1.0, 1.0},
			ActionWeights: []float64{1e-2},
			FinalWeights:  []float64{50.0, 50.0, 5.0, 5.0},
			WrapAngles:    []int{0, 1},
		},
	},
	"drone": {
		"hover": {
			Model: "drone", Stepper: "rk4",
			Steps: 100, Horizon: 30,
			SimulationStep: 0.01, Downsampling: 5,
			MaxIter: 25, CostTol: 1e-3,
			Seed: 1337, FeedforwardScale: 1e-2,
			InitState: []float64{0.5, -0.3, 0.1, 0, 0, 0},
			GoalState: []float64{0, 0, 0, 0, 0, 0},
			ActionLow: []float64{0, 0}, ActionHigh: []float64{8, 8},
			StateWeights:  []float64{1.0, 1.0, 5.0, 0.1, 0.1, 0.1},
			ActionWeights: []float64{1e-2, 1e-2},
			FinalWeights:  []float64{10.0, 10.0, 20.0, 1.0, 1.0, 1.0},
			WrapAngles:    []int{2},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil if unknown.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func PresetModels() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultFor returns the canonical scenario for a model: swing-up for the
// pendulum, balancing for the cartpole and double pendulum, hovering for
// the drone. Unknown models get the global default with the model name
// substituted so assembly reports the real problem.
func DefaultFor(model string) *Config {
	switch model {
	case "pendulum":
		return DefaultConfig()
	case "cartpole":
		return GetPreset("cartpole", "balance")
	case "double_pendulum":
		return GetPreset("double_pendulum", "balance")
	case "drone":
		return GetPreset("drone", "hover")
	}
	cfg := DefaultConfig()
	cfg.Model = model
	return cfg
}
