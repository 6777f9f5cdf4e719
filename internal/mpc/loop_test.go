package mpc_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/gokhanalcan/tox/internal/ilqr"
	"github.com/gokhanalcan/tox/internal/integrators"
	"github.com/gokhanalcan/tox/internal/metrics"
	"github.com/gokhanalcan/tox/internal/models"
	"github.com/gokhanalcan/tox/internal/mpc"
	"github.com/gokhanalcan/tox/internal/ocp"
)

func pendulumSwingUp() (ilqr.Problem, ilqr.Hyperparameters, mpc.Config) {
	dyn, err := integrators.Discretize(models.NewPendulum(), integrators.NewRK4(), 0.01, 5)
	Expect(err).NotTo(HaveOccurred())
	cost, err := models.NewDiagonalCost(
		[]float64{1.0, 0.1},
		[]float64{1e-3},
		[]float64{1.0, 0.1},
		ocp.State{math.Pi, 0},
		[]int{0},
	)
	Expect(err).NotTo(HaveOccurred())
	actions, err := ocp.NewBox([]float64{-5}, []float64{5})
	Expect(err).NotTo(HaveOccurred())

	prob := ilqr.Problem{
		Dynamics:    dyn,
		Cost:        cost,
		StateSpace:  ocp.Unbounded(2),
		ActionSpace: actions,
	}
	opts := ilqr.DefaultHyperparameters()
	opts.MaxIter = 25
	opts.CostTol = 1e-3

	cfg := mpc.Config{Steps: 100, Horizon: 25, Seed: 1337, FeedforwardScale: 1e-2}
	return prob, opts, cfg
}

func doubleIntegrator() ilqr.Problem {
	dt := 0.1
	a := mat.NewDense(2, 2, []float64{1, dt, 0, 1})
	b := mat.NewDense(2, 1, []float64{0.5 * dt * dt, dt})
	dyn, err := models.NewLinear(a, b)
	Expect(err).NotTo(HaveOccurred())
	cost, err := models.NewDiagonalCost([]float64{1, 1}, []float64{0.1}, []float64{5, 5}, ocp.State{0, 0}, nil)
	Expect(err).NotTo(HaveOccurred())
	return ilqr.Problem{
		Dynamics:    dyn,
		Cost:        cost,
		StateSpace:  ocp.Unbounded(2),
		ActionSpace: ocp.Unbounded(1),
	}
}

func meanInts(v []int) float64 {
	sum := 0
	for _, x := range v {
		sum += x
	}
	return float64(sum) / float64(len(v))
}

type recordingObserver struct {
	steps []int
	costs []float64
	iters []int
}

func (r *recordingObserver) OnStep(step int, cost float64, iters int) {
	r.steps = append(r.steps, step)
	r.costs = append(r.costs, cost)
	r.iters = append(r.iters, iters)
}

type nanDynamics struct{}

func (nanDynamics) Step(x ocp.State, u ocp.Control, k int) ocp.State {
	return ocp.State{math.NaN(), math.NaN()}
}
func (nanDynamics) StateDim() int   { return 2 }
func (nanDynamics) ControlDim() int { return 1 }

var _ = Describe("Loop", func() {
	Describe("pendulum swing-up", Ordered, func() {
		var (
			result *mpc.Result
			loop   *mpc.Loop
			box    *ocp.Box
		)

		BeforeAll(func() {
			prob, opts, cfg := pendulumSwingUp()
			box = prob.ActionSpace

			var err error
			loop, err = mpc.New(prob, opts, cfg)
			Expect(err).NotTo(HaveOccurred())

			result, err = loop.Run(context.Background(), ocp.State{0.01, 0})
			Expect(err).NotTo(HaveOccurred())
		})

		It("reaches the upright goal", func() {
			final := result.States[len(result.States)-1]
			Expect(math.Abs(models.WrapAngle(final[0] - math.Pi))).To(BeNumerically("<", 0.05))
			Expect(math.Abs(final[1])).To(BeNumerically("<", 0.05))
		})

		It("records one entry per applied step", func() {
			Expect(result.States).To(HaveLen(101))
			Expect(result.Actions).To(HaveLen(100))
			Expect(result.Costs).To(HaveLen(100))
			Expect(result.Iters).To(HaveLen(100))
			Expect(result.Times).To(HaveLen(101))
		})

		It("stamps times with the control period", func() {
			Expect(loop.ControlPeriod()).To(BeNumerically("~", 0.05, 1e-12))
			Expect(result.Times[1] - result.Times[0]).To(BeNumerically("~", 0.05, 1e-12))
		})

		It("keeps every applied action within its bounds", func() {
			for _, u := range result.Actions {
				Expect(box.Contains(u)).To(BeTrue())
			}
		})

		It("drives the planning cost down over the run", func() {
			Expect(result.Costs[len(result.Costs)-1]).To(BeNumerically("<", result.Costs[0]))
			for _, c := range result.Costs {
				Expect(math.IsNaN(c)).To(BeFalse())
				Expect(math.IsInf(c, 0)).To(BeFalse())
			}
		})

		It("needs fewer solver iterations once warm starts settle", func() {
			early := meanInts(result.Iters[:20])
			late := meanInts(result.Iters[80:])
			Expect(late).To(BeNumerically("<=", early))
		})
	})

	Describe("linear regulation", Ordered, func() {
		var result *mpc.Result

		BeforeAll(func() {
			loop, err := mpc.New(doubleIntegrator(), ilqr.DefaultHyperparameters(),
				mpc.Config{Steps: 60, Horizon: 15, Seed: 1, FeedforwardScale: 0})
			Expect(err).NotTo(HaveOccurred())

			result, err = loop.Run(context.Background(), ocp.State{1, 0})
			Expect(err).NotTo(HaveOccurred())
		})

		It("regulates the state to the origin", func() {
			final := result.States[len(result.States)-1]
			Expect(math.Abs(final[0])).To(BeNumerically("<", 1e-2))
			Expect(math.Abs(final[1])).To(BeNumerically("<", 1e-2))
		})
	})

	Describe("observers and metrics", func() {
		It("notifies the observer once per step in order", func() {
			loop, err := mpc.New(doubleIntegrator(), ilqr.DefaultHyperparameters(),
				mpc.Config{Steps: 12, Horizon: 10, Seed: 1})
			Expect(err).NotTo(HaveOccurred())

			obs := &recordingObserver{}
			loop.AddObserver(obs)

			result, err := loop.Run(context.Background(), ocp.State{1, 0})
			Expect(err).NotTo(HaveOccurred())

			Expect(obs.steps).To(HaveLen(12))
			for i, s := range obs.steps {
				Expect(s).To(Equal(i))
			}
			Expect(obs.costs).To(Equal(result.Costs))
			Expect(obs.iters).To(Equal(result.Iters))
		})

		It("reports metric values in the result", func() {
			loop, err := mpc.New(doubleIntegrator(), ilqr.DefaultHyperparameters(),
				mpc.Config{Steps: 20, Horizon: 10, Seed: 1})
			Expect(err).NotTo(HaveOccurred())

			loop.AddMetric(metrics.NewControlEffort())
			loop.AddMetric(metrics.NewGoalDistance(ocp.State{0, 0}, nil))

			result, err := loop.Run(context.Background(), ocp.State{1, 0})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Metrics).To(HaveKey("control_effort"))
			Expect(result.Metrics["control_effort"]).To(BeNumerically(">", 0))
			Expect(result.Metrics["goal_distance"]).To(BeNumerically("<", 0.1))
		})
	})

	Describe("failure handling", func() {
		It("propagates solver divergence with the outer step index", func() {
			cost, err := models.NewDiagonalCost([]float64{1, 1}, []float64{1}, []float64{1, 1}, ocp.State{0, 0}, nil)
			Expect(err).NotTo(HaveOccurred())
			prob := ilqr.Problem{
				Dynamics:    nanDynamics{},
				Cost:        cost,
				StateSpace:  ocp.Unbounded(2),
				ActionSpace: ocp.Unbounded(1),
			}
			loop, err := mpc.New(prob, ilqr.DefaultHyperparameters(),
				mpc.Config{Steps: 10, Horizon: 5, Seed: 1})
			Expect(err).NotTo(HaveOccurred())

			result, err := loop.Run(context.Background(), ocp.State{1, 0})
			Expect(errors.Is(err, ocp.ErrNumericalDivergence)).To(BeTrue())

			var se *ocp.SolveError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(0))

			Expect(result.States).To(HaveLen(1))
			Expect(result.Actions).To(BeEmpty())
		})

		It("stops between steps when the context is canceled", func() {
			loop, err := mpc.New(doubleIntegrator(), ilqr.DefaultHyperparameters(),
				mpc.Config{Steps: 10, Horizon: 10, Seed: 1})
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			result, err := loop.Run(ctx, ocp.State{1, 0})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(result.States).To(HaveLen(1))
		})

		It("rejects bad configurations", func() {
			prob := doubleIntegrator()
			opts := ilqr.DefaultHyperparameters()

			_, err := mpc.New(prob, opts, mpc.Config{Steps: 0, Horizon: 10})
			Expect(err).To(HaveOccurred())

			_, err = mpc.New(prob, opts, mpc.Config{Steps: 10, Horizon: 0})
			Expect(err).To(HaveOccurred())

			_, err = mpc.New(prob, opts, mpc.Config{Steps: 10, Horizon: 10, FeedforwardScale: -1})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an initial state of the wrong dimension", func() {
			loop, err := mpc.New(doubleIntegrator(), ilqr.DefaultHyperparameters(),
				mpc.Config{Steps: 10, Horizon: 10})
			Expect(err).NotTo(HaveOccurred())

			_, err = loop.Run(context.Background(), ocp.State{1})
			Expect(errors.Is(err, ocp.ErrShapeMismatch)).To(BeTrue())
		})
	})
})

var _ = Describe("Session", func() {
	It("steps a run incrementally", func() {
		loop, err := mpc.New(doubleIntegrator(), ilqr.DefaultHyperparameters(),
			mpc.Config{Steps: 5, Horizon: 8, Seed: 1})
		Expect(err).NotTo(HaveOccurred())

		sess, err := loop.Start(ocp.State{1, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.Done()).To(BeFalse())
		Expect(sess.State()).To(Equal(ocp.State{1, 0}))

		for i := 0; i < 3; i++ {
			info, err := sess.Step(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Step).To(Equal(i))
			Expect(info.State).To(Equal(sess.State()))
		}

		Expect(sess.Done()).To(BeFalse())
		Expect(sess.Result().Actions).To(HaveLen(3))
		Expect(sess.Result().States).To(HaveLen(4))

		for !sess.Done() {
			_, err := sess.Step(context.Background())
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(sess.Result().Actions).To(HaveLen(5))

		_, err = sess.Step(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
