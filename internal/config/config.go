package config

import (
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSteps            = 100
	DefaultHorizon          = 25
	DefaultSimulationStep   = 0.01
	DefaultDownsampling     = 5
	DefaultMaxIter          = 25
	DefaultCostTol          = 1e-3
	DefaultSeed             = 1337
	DefaultFeedforwardScale = 1e-2
)

// Config captures one complete closed-loop run: the plant, the discretizer
// settings, the solver knobs and the cost shape. Empty state bounds mean an
// unbounded state space.
type Config struct {
	Model            string             `yaml:"model"`
	Stepper          string             `yaml:"stepper"`
	Steps            int                `yaml:"steps"`
	Horizon          int                `yaml:"horizon"`
	SimulationStep   float64            `yaml:"simulation_step"`
	Downsampling     int                `yaml:"downsampling"`
	MaxIter          int                `yaml:"max_iter"`
	CostTol          float64            `yaml:"cost_tol"`
	Seed             int64              `yaml:"seed"`
	FeedforwardScale float64            `yaml:"feedforward_scale"`
	InitState        []float64          `yaml:"init_state"`
	GoalState        []float64          `yaml:"goal_state"`
	ActionLow        []float64          `yaml:"action_low"`
	ActionHigh       []float64          `yaml:"action_high"`
	StateLow         []float64          `yaml:"state_low"`
	StateHigh        []float64          `yaml:"state_high"`
	StateWeights     []float64          `yaml:"state_weights"`
	ActionWeights    []float64          `yaml:"action_weights"`
	FinalWeights     []float64          `yaml:"final_weights"`
	WrapAngles       []int              `yaml:"wrap_angles"`
	Params           map[string]float64 `yaml:"params"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:            "pendulum",
		Stepper:          "rk4",
		Steps:            DefaultSteps,
		Horizon:          DefaultHorizon,
		SimulationStep:   DefaultSimulationStep,
		Downsampling:     DefaultDownsampling,
		MaxIter:          DefaultMaxIter,
		CostTol:          DefaultCostTol,
		Seed:             DefaultSeed,
		FeedforwardScale: DefaultFeedforwardScale,
		InitState:        []float64{0.01, 0},
		GoalState:        []float64{math.Pi, 0},
		ActionLow:        []float64{-5},
		ActionHigh:       []float64{5},
		StateWeights:     []float64{1.0, 0.1},
		ActionWeights:    []float64{1e-3},
		FinalWeights:     []float64{1.0, 0.1},
		WrapAngles:       []int{0},
	}
}

// Load reads a YAML file over the defaults, so a file only has to name the
// values it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so callers can apply overrides without touching
// shared preset values.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = cloneFloats(c.InitState)
	out.GoalState = cloneFloats(c.GoalState)
	out.ActionLow = cloneFloats(c.ActionLow)
	out.ActionHigh = cloneFloats(c.ActionHigh)
	out.StateLow = cloneFloats(c.StateLow)
	out.StateHigh = cloneFloats(c.StateHigh)
	out.StateWeights = cloneFloats(c.StateWeights)
	out.ActionWeights = cloneFloats(c.ActionWeights)
	out.FinalWeights = cloneFloats(c.FinalWeights)
	if c.WrapAngles != nil {
		out.WrapAngles = make([]int, len(c.WrapAngles))
		copy(out.WrapAngles, c.WrapAngles)
	}
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
