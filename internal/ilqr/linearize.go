package ilqr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gokhanalcan/tox/internal/fdiff"
	"github.com/gokhanalcan/tox/internal/ocp"
)

type workspace struct {
	horizon int

	// per-step expansions refreshed by linearize
	A     []*mat.Dense
	B     []*mat.Dense
	stage []*ocp.StageExpansion
	final *ocp.FinalExpansion

	// backward pass outputs, overwritten every iteration
	K   []*mat.Dense
	kff []ocp.Control

	// backward pass scratch
	vx                *mat.VecDense
	vxx               *mat.SymDense
	qx, vx1, vx2, vx3 *mat.VecDense
	qu, kv            *mat.VecDense
	atvxx, qxxD       *mat.Dense
	ktquuk, ktqux     *mat.Dense
	vxxD              *mat.Dense
	btvxx, qux        *mat.Dense
	quuD, ktquu       *mat.Dense
	quuSym, quuReg    *mat.SymDense
}

func (s *Solver) ensureWorkspace(horizon int) {
	if s.ws != nil && s.ws.horizon == horizon {
		return
	}
	n, m := s.n, s.m

	ws := &workspace{
		horizon: horizon,
		A:       make([]*mat.Dense, horizon),
		B:       make([]*mat.Dense, horizon),
		stage:   make([]*ocp.StageExpansion, horizon),
		K:       make([]*mat.Dense, horizon),
		kff:     make([]ocp.Control, horizon),

		vx:     mat.NewVecDense(n, nil),
		vxx:    mat.NewSymDense(n, nil),
		qx:     mat.NewVecDense(n, nil),
		vx1:    mat.NewVecDense(n, nil),
		vx2:    mat.NewVecDense(n, nil),
		vx3:    mat.NewVecDense(n, nil),
		qu:     mat.NewVecDense(m, nil),
		kv:     mat.NewVecDense(m, nil),
		atvxx:  mat.NewDense(n, n, nil),
		qxxD:   mat.NewDense(n, n, nil),
		ktquuk: mat.NewDense(n, n, nil),
		ktqux:  mat.NewDense(n, n, nil),
		vxxD:   mat.NewDense(n, n, nil),
		btvxx:  mat.NewDense(m, n, nil),
		qux:    mat.NewDense(m, n, nil),
		quuD:   mat.NewDense(m, m, nil),
		ktquu:  mat.NewDense(n, m, nil),
		quuSym: mat.NewSymDense(m, nil),
		quuReg: mat.NewSymDense(m, nil),
	}
	for k := 0; k < horizon; k++ {
		ws.K[k] = mat.NewDense(m, n, nil)
		ws.kff[k] = make(ocp.Control, m)
	}
	s.ws = ws
}

// linearize refreshes the dynamics Jacobians and cost expansions around
// traj. Models advertising analytic derivatives are asked directly; anything
// else goes through central finite differences. Steps are independent, so
// the horizon is split across goroutines.
func (s *Solver) linearize(traj *ocp.Trajectory) {
	horizon := s.ws.horizon
	lin, hasLin := s.prob.Dynamics.(ocp.Linearizable)
	sq, hasSQ := s.prob.Cost.(ocp.StageQuadratizer)

	ocp.ParallelFor(horizon, 8, func(startIdx, endIdx int) {
		var (
			jx, ju *fdiff.Jacobian
			grad   *fdiff.Gradient
			hess   *fdiff.Hessian
			z, gz  []float64
			hz     *mat.SymDense
		)
		if !hasLin {
			jx = fdiff.NewJacobian(s.n, s.n)
			ju = fdiff.NewJacobian(s.m, s.n)
		}
		if !hasSQ {
			grad = fdiff.NewGradient(s.n + s.m)
			hess = fdiff.NewHessian(s.n + s.m)
			z = make([]float64, s.n+s.m)
			gz = make([]float64, s.n+s.m)
			hz = mat.NewSymDense(s.n+s.m, nil)
		}

		for k := startIdx; k < endIdx; k++ {
			x := traj.States[k]
			u := traj.Actions[k]

			if hasLin {
				s.ws.A[k], s.ws.B[k] = lin.Linearize(x, u, k)
			} else {
				step := k
				a := mat.NewDense(s.n, s.n, nil)
				b := mat.NewDense(s.n, s.m, nil)
				jx.Compute(func(v, out []float64) {
					copy(out, s.prob.Dynamics.Step(ocp.State(v), u, step))
				}, x, a)
				ju.Compute(func(v, out []float64) {
					copy(out, s.prob.Dynamics.Step(x, ocp.Control(v), step))
				}, u, b)
				s.ws.A[k], s.ws.B[k] = a, b
			}

			if hasSQ {
				s.ws.stage[k] = sq.StageQuadratics(x, u, k)
			} else {
				s.ws.stage[k] = s.numericStage(grad, hess, z, gz, hz, x, u, k)
			}
		}
	})

	terminal := traj.States[horizon]
	if fq, ok := s.prob.Cost.(ocp.FinalQuadratizer); ok {
		s.ws.final = fq.FinalQuadratics(terminal)
	} else {
		s.ws.final = s.numericFinal(terminal)
	}
}

func (s *Solver) numericStage(grad *fdiff.Gradient, hess *fdiff.Hessian, z, gz []float64, hz *mat.SymDense, x ocp.State, u ocp.Control, k int) *ocp.StageExpansion {
	n, m := s.n, s.m
	copy(z[:n], x)
	copy(z[n:], u)

	f := func(v []float64) float64 {
		return s.prob.Cost.Stage(ocp.State(v[:n]), ocp.Control(v[n:n+m]), k)
	}
	grad.Compute(f, z, gz)
	hess.Compute(f, z, hz)

	cx := mat.NewVecDense(n, nil)
	cu := mat.NewVecDense(m, nil)
	for i := 0; i < n; i++ {
		cx.SetVec(i, gz[i])
	}
	for i := 0; i < m; i++ {
		cu.SetVec(i, gz[n+i])
	}

	cxx := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cxx.SetSym(i, j, hz.At(i, j))
		}
	}
	cuu := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			cuu.SetSym(i, j, hz.At(n+i, n+j))
		}
	}
	cux := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			cux.Set(i, j, hz.At(n+i, j))
		}
	}

	return &ocp.StageExpansion{Cx: cx, Cu: cu, Cxx: cxx, Cuu: cuu, Cux: cux}
}

func (s *Solver) numericFinal(x ocp.State) *ocp.FinalExpansion {
	n := s.n
	grad := fdiff.NewGradient(n)
	hess := fdiff.NewHessian(n)

	f := func(v []float64) float64 {
		return s.prob.Cost.Final(ocp.State(v))
	}

	gx := make([]float64, n)
	grad.Compute(f, x, gx)

	pxx := mat.NewSymDense(n, nil)
	hess.Compute(f, x, pxx)

	px := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		px.SetVec(i, gx[i])
	}
	return &ocp.FinalExpansion{Px: px, Pxx: pxx}
}
