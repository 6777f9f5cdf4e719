package fdiff

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Relative step sizes for central difference schemes, following the usual
// machine-epsilon power rules for first and second derivatives.
var (
	epsilon   = math.Nextafter(1.0, 2.0) - 1.0
	cbrtEps   = math.Cbrt(epsilon)
	fourthEps = math.Pow(epsilon, 0.25)
)

// VectorFunc writes f(x) into out. out has the output dimension of f.
type VectorFunc func(x, out []float64)

// ScalarFunc evaluates f(x).
type ScalarFunc func(x []float64) float64

func step(x, rel float64) float64 {
	return rel * math.Max(1.0, math.Abs(x))
}

// Jacobian approximates the derivative matrix of a vector map by central
// differences. It keeps perturbation scratch between calls; methods panic on
// dimension mismatch, mirroring gonum/mat conventions.
type Jacobian struct {
	in, out int
	x       []float64
	yp, ym  []float64
}

func NewJacobian(inDim, outDim int) *Jacobian {
	if inDim < 1 || outDim < 1 {
		panic("fdiff: non-positive dimension")
	}
	return &Jacobian{
		in:  inDim,
		out: outDim,
		x:   make([]float64, inDim),
		yp:  make([]float64, outDim),
		ym:  make([]float64, outDim),
	}
}

// Compute fills dst (outDim x inDim) with the Jacobian of f at x.
func (j *Jacobian) Compute(f VectorFunc, x []float64, dst *mat.Dense) {
	if len(x) != j.in {
		panic("fdiff: input dimension mismatch")
	}
	if r, c := dst.Dims(); r != j.out || c != j.in {
		panic("fdiff: destination dimension mismatch")
	}

	copy(j.x, x)
	for i := 0; i < j.in; i++ {
		h := step(x[i], cbrtEps)
		xp := x[i] + h
		xm := x[i] - h

		j.x[i] = xp
		f(j.x, j.yp)
		j.x[i] = xm
		f(j.x, j.ym)
		j.x[i] = x[i]

		inv := 1.0 / (xp - xm)
		for r := 0; r < j.out; r++ {
			dst.Set(r, i, (j.yp[r]-j.ym[r])*inv)
		}
	}
}

// Gradient approximates the gradient of a scalar function by central
// differences.
type Gradient struct {
	n int
	x []float64
}

func NewGradient(n int) *Gradient {
	if n < 1 {
		panic("fdiff: non-positive dimension")
	}
	return &Gradient{n: n, x: make([]float64, n)}
}

// Compute fills dst with the gradient of f at x.
func (g *Gradient) Compute(f ScalarFunc, x, dst []float64) {
	if len(x) != g.n || len(dst) != g.n {
		panic("fdiff: dimension mismatch")
	}

	copy(g.x, x)
	for i := 0; i < g.n; i++ {
		h := step(x[i], cbrtEps)
		xp := x[i] + h
		xm := x[i] - h

		g.x[i] = xp
		fp := f(g.x)
		g.x[i] = xm
		fm := f(g.x)
		g.x[i] = x[i]

		dst[i] = (fp - fm) / (xp - xm)
	}
}

// Hessian approximates the symmetric second-derivative matrix of a scalar
// function by central differences.
type Hessian struct {
	n int
	x []float64
}

func NewHessian(n int) *Hessian {
	if n < 1 {
		panic("fdiff: non-positive dimension")
	}
	return &Hessian{n: n, x: make([]float64, n)}
}

// Compute fills dst (n x n) with the Hessian of f at x.
func (h *Hessian) Compute(f ScalarFunc, x []float64, dst *mat.SymDense) {
	if len(x) != h.n {
		panic("fdiff: input dimension mismatch")
	}
	if dst.SymmetricDim() != h.n {
		panic("fdiff: destination dimension mismatch")
	}

	copy(h.x, x)
	f0 := f(h.x)

	for i := 0; i < h.n; i++ {
		hi := step(x[i], fourthEps)

		h.x[i] = x[i] + hi
		fp := f(h.x)
		h.x[i] = x[i] - hi
		fm := f(h.x)
		h.x[i] = x[i]

		dst.SetSym(i, i, (fp-2.0*f0+fm)/(hi*hi))

		for k := i + 1; k < h.n; k++ {
			hk := step(x[k], fourthEps)

			h.x[i] = x[i] + hi
			h.x[k] = x[k] + hk
			fpp := f(h.x)
			h.x[k] = x[k] - hk
			fpm := f(h.x)
			h.x[i] = x[i] - hi
			h.x[k] = x[k] + hk
			fmp := f(h.x)
			h.x[k] = x[k] - hk
			fmm := f(h.x)
			h.x[i] = x[i]
			h.x[k] = x[k]

			dst.SetSym(i, k, (fpp-fpm-fmp+fmm)/(4.0*hi*hk))
		}
	}
}
