package ilqr

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/gokhanalcan/tox/internal/ocp"
)

var errFactorization = errors.New("ilqr: control Hessian factorization failed")

// Damping floor used when the ladder starts from zero regularization.
const regFloor = 1e-6

// backwardPass runs the value recursion over the current expansions and
// fills ws.K and ws.kff. A factorization failure restarts the whole pass
// with a larger damping term until MaxReg is exceeded.
func (s *Solver) backwardPass() error {
	lambda := s.opts.InitReg
	for {
		err := s.tryBackward(lambda)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errFactorization) {
			return err
		}
		if lambda <= 0 {
			lambda = regFloor
		} else {
			lambda *= s.opts.RegScale
		}
		if lambda > s.opts.MaxReg {
			return ocp.ErrNotPositiveDefinite
		}
	}
}

func (s *Solver) tryBackward(lambda float64) error {
	ws := s.ws
	n, m := s.n, s.m

	ws.vx.CopyVec(ws.final.Px)
	ws.vxx.CopySym(ws.final.Pxx)

	var chol mat.Cholesky

	for k := ws.horizon - 1; k >= 0; k-- {
		a, b := ws.A[k], ws.B[k]
		exp := ws.stage[k]

		// Qx = Cx + A'Vx, Qu = Cu + B'Vx
		ws.qx.MulVec(a.T(), ws.vx)
		ws.qx.AddVec(ws.qx, exp.Cx)
		ws.qu.MulVec(b.T(), ws.vx)
		ws.qu.AddVec(ws.qu, exp.Cu)

		// Qxx = Cxx + A'VxxA, Quu = Cuu + B'VxxB, Qux = Cux + B'VxxA
		ws.atvxx.Mul(a.T(), ws.vxx)
		ws.qxxD.Mul(ws.atvxx, a)
		ws.qxxD.Add(ws.qxxD, exp.Cxx)

		ws.btvxx.Mul(b.T(), ws.vxx)
		ws.quuD.Mul(ws.btvxx, b)
		ws.quuD.Add(ws.quuD, exp.Cuu)
		ws.qux.Mul(ws.btvxx, a)
		ws.qux.Add(ws.qux, exp.Cux)

		for i := 0; i < m; i++ {
			for j := i; j < m; j++ {
				v := 0.5 * (ws.quuD.At(i, j) + ws.quuD.At(j, i))
				ws.quuSym.SetSym(i, j, v)
				if i == j {
					v += lambda
				}
				ws.quuReg.SetSym(i, j, v)
			}
		}

		if ok := chol.Factorize(ws.quuReg); !ok {
			return errFactorization
		}

		// K = -QuuReg⁻¹ Qux, kff = -QuuReg⁻¹ Qu
		if err := chol.SolveTo(ws.K[k], ws.qux); err != nil {
			return errFactorization
		}
		ws.K[k].Scale(-1, ws.K[k])
		if err := chol.SolveVecTo(ws.kv, ws.qu); err != nil {
			return errFactorization
		}
		ws.kv.ScaleVec(-1, ws.kv)
		for i := 0; i < m; i++ {
			ws.kff[k][i] = ws.kv.AtVec(i)
		}

		// Vx = Qx + K'Quu kff + K'Qu + Qux'kff, with the undamped Quu
		ws.ktquu.Mul(ws.K[k].T(), ws.quuSym)
		ws.vx1.MulVec(ws.ktquu, ws.kv)
		ws.vx2.MulVec(ws.K[k].T(), ws.qu)
		ws.vx3.MulVec(ws.qux.T(), ws.kv)
		ws.vx.AddVec(ws.qx, ws.vx1)
		ws.vx.AddVec(ws.vx, ws.vx2)
		ws.vx.AddVec(ws.vx, ws.vx3)

		// Vxx = Qxx + K'QuuK + K'Qux + Qux'K, resymmetrized
		ws.ktquuk.Mul(ws.ktquu, ws.K[k])
		ws.ktqux.Mul(ws.K[k].T(), ws.qux)
		ws.vxxD.Add(ws.qxxD, ws.ktquuk)
		ws.vxxD.Add(ws.vxxD, ws.ktqux)
		ws.vxxD.Add(ws.vxxD, ws.ktqux.T())
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				ws.vxx.SetSym(i, j, 0.5*(ws.vxxD.At(i, j)+ws.vxxD.At(j, i)))
			}
		}
	}

	return nil
}
