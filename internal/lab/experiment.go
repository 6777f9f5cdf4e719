package lab

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/ilqr"
	"github.com/gokhanalcan/tox/internal/integrators"
	"github.com/gokhanalcan/tox/internal/metrics"
	"github.com/gokhanalcan/tox/internal/models"
	"github.com/gokhanalcan/tox/internal/mpc"
	"github.com/gokhanalcan/tox/internal/ocp"
)

// Experiment assembles a runnable closed-loop setup from a Config: the
// plant, its discretization, the cost, the boxes, the solver and the loop.
type Experiment struct {
	cfg  *config.Config
	sys  ocp.System
	prob ilqr.Problem
	opts ilqr.Hyperparameters
	loop *mpc.Loop
}

func New(cfg *config.Config) (*Experiment, error) {
	reg := NewRegistry()

	sys, err := reg.GetSystem(cfg.Model)
	if err != nil {
		return nil, err
	}
	if err := applyParams(sys, cfg.Params); err != nil {
		return nil, err
	}

	n, m := sys.StateDim(), sys.ControlDim()
	if len(cfg.InitState) != n {
		return nil, fmt.Errorf("lab: %s wants %d initial state entries, config has %d",
			cfg.Model, n, len(cfg.InitState))
	}
	if len(cfg.GoalState) != n {
		return nil, fmt.Errorf("lab: %s wants %d goal entries, config has %d",
			cfg.Model, n, len(cfg.GoalState))
	}
	if len(cfg.ActionWeights) != m {
		return nil, fmt.Errorf("lab: %s wants %d action weights, config has %d",
			cfg.Model, m, len(cfg.ActionWeights))
	}

	stepper, err := reg.GetStepper(cfg.Stepper)
	if err != nil {
		return nil, err
	}
	dyn, err := integrators.Discretize(sys, stepper, cfg.SimulationStep, cfg.Downsampling)
	if err != nil {
		return nil, err
	}

	cost, err := models.NewDiagonalCost(cfg.StateWeights, cfg.ActionWeights, cfg.FinalWeights,
		ocp.State(cfg.GoalState), cfg.WrapAngles)
	if err != nil {
		return nil, err
	}

	actionSpace, err := ocp.NewBox(cfg.ActionLow, cfg.ActionHigh)
	if err != nil {
		return nil, err
	}
	stateSpace := ocp.Unbounded(n)
	if len(cfg.StateLow) > 0 || len(cfg.StateHigh) > 0 {
		stateSpace, err = ocp.NewBox(cfg.StateLow, cfg.StateHigh)
		if err != nil {
			return nil, err
		}
	}

	prob := ilqr.Problem{
		Dynamics:    dyn,
		Cost:        cost,
		StateSpace:  stateSpace,
		ActionSpace: actionSpace,
	}

	opts := ilqr.DefaultHyperparameters()
	opts.MaxIter = cfg.MaxIter
	opts.CostTol = cfg.CostTol

	loop, err := mpc.New(prob, opts, mpc.Config{
		Steps:            cfg.Steps,
		Horizon:          cfg.Horizon,
		Seed:             cfg.Seed,
		FeedforwardScale: cfg.FeedforwardScale,
	})
	if err != nil {
		return nil, err
	}

	loop.AddMetric(metrics.NewControlEffort())
	loop.AddMetric(metrics.NewGoalDistance(ocp.State(cfg.GoalState), cfg.WrapAngles))
	loop.AddMetric(metrics.NewSaturation(actionSpace))
	if h, ok := sys.(ocp.Hamiltonian); ok {
		loop.AddMetric(metrics.NewEnergy(h))
	}

	return &Experiment{cfg: cfg, sys: sys, prob: prob, opts: opts, loop: loop}, nil
}

func (e *Experiment) Run(ctx context.Context) (*mpc.Result, error) {
	return e.loop.Run(ctx, ocp.State(e.cfg.InitState).Clone())
}

// Solve runs one open-loop trajectory optimization from the configured
// initial state, without receding-horizon feedback.
func (e *Experiment) Solve(ctx context.Context) (*ilqr.Solution, error) {
	solver, err := ilqr.NewSolver(e.prob, e.opts)
	if err != nil {
		return nil, err
	}
	n, m := e.prob.Dynamics.StateDim(), e.prob.Dynamics.ControlDim()
	rng := rand.New(rand.NewSource(e.cfg.Seed))
	policy := ocp.NewRandomPolicy(e.cfg.Horizon, n, m, e.cfg.FeedforwardScale, rng)
	reference := ocp.NewTrajectory(e.cfg.Horizon, n, m)
	return solver.Solve(ctx, ocp.State(e.cfg.InitState).Clone(), policy, reference)
}

// Start opens an incremental session for callers that pace the run
// themselves, like the live terminal view.
func (e *Experiment) Start() (*mpc.Session, error) {
	return e.loop.Start(ocp.State(e.cfg.InitState).Clone())
}

// Loop exposes the underlying loop for attaching observers.
func (e *Experiment) Loop() *mpc.Loop { return e.loop }

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) System() ocp.System { return e.sys }
