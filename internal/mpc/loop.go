package mpc

import (
	"context"
	"fmt"
	"math"

	"github.com/gokhanalcan/tox/internal/ilqr"
	"github.com/gokhanalcan/tox/internal/ocp"
)

// Observer receives one event per applied control step.
type Observer interface {
	OnStep(step int, cost float64, iters int)
}

// Metric accumulates a scalar statistic over the closed-loop run.
type Metric interface {
	Name() string
	Observe(x ocp.State, u ocp.Control, t float64)
	Value() float64
	Reset()
}

// Config holds the outer-loop knobs. Steps is the total number of actions
// applied to the true system; Horizon is the solver's look-ahead window.
// The initial feedforward is drawn from a generator seeded with Seed and
// scaled by FeedforwardScale, so equal configs give equal runs.
type Config struct {
	Steps            int
	Horizon          int
	Seed             int64
	FeedforwardScale float64
}

// Result collects the closed-loop record of one run. States has one more
// entry than Actions; Costs and Iters hold the accepted solver cost and the
// number of accepted solver iterations per step.
type Result struct {
	States  []ocp.State
	Actions []ocp.Control
	Costs   []float64
	Iters   []int
	Times   []float64
	Metrics map[string]float64
}

// Loop re-plans a finite-horizon trajectory from the current true state at
// every step and applies only the first planned action. Each solve is
// warm-started from the previous solution.
type Loop struct {
	prob      ilqr.Problem
	solver    *ilqr.Solver
	cfg       Config
	period    float64
	metrics   []Metric
	observers []Observer
}

type clocked interface {
	ControlPeriod() float64
}

func New(prob ilqr.Problem, opts ilqr.Hyperparameters, cfg Config) (*Loop, error) {
	if cfg.Steps < 1 {
		return nil, fmt.Errorf("mpc: steps must be at least 1, got %d", cfg.Steps)
	}
	if cfg.Horizon < 1 {
		return nil, fmt.Errorf("mpc: horizon must be at least 1, got %d", cfg.Horizon)
	}
	if cfg.FeedforwardScale < 0 || math.IsNaN(cfg.FeedforwardScale) {
		return nil, fmt.Errorf("mpc: feedforward scale must be non-negative, got %v", cfg.FeedforwardScale)
	}

	solver, err := ilqr.NewSolver(prob, opts)
	if err != nil {
		return nil, err
	}

	period := 1.0
	if c, ok := prob.Dynamics.(clocked); ok {
		period = c.ControlPeriod()
	}

	return &Loop{
		prob:      prob,
		solver:    solver,
		cfg:       cfg,
		period:    period,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (l *Loop) AddMetric(m Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

// ControlPeriod reports the wall-clock seconds covered by one outer step.
func (l *Loop) ControlPeriod() float64 { return l.period }

// Run drives a full closed-loop run from x0. On a fatal solver error the
// record accumulated so far is returned alongside the error.
func (l *Loop) Run(ctx context.Context, x0 ocp.State) (*Result, error) {
	sess, err := l.Start(x0)
	if err != nil {
		return nil, err
	}
	for !sess.Done() {
		if _, err := sess.Step(ctx); err != nil {
			return sess.Result(), err
		}
	}
	return sess.Result(), nil
}
