package ilqr

import (
	"fmt"
	"math"
)

// Hyperparameters tune the solve loop. Zero values are not usable; start
// from DefaultHyperparameters.
type Hyperparameters struct {
	// MaxIter bounds the number of improvement iterations.
	MaxIter int

	// CostTol stops the solve once the relative cost improvement of an
	// accepted iteration falls below it.
	CostTol float64

	// Alphas are the line search step sizes applied to the feedforward
	// term, tried in order until one improves the cost.
	Alphas []float64

	// InitReg, RegScale and MaxReg drive the Levenberg-style ladder on the
	// control Hessian: factorization failures multiply the damping by
	// RegScale until it exceeds MaxReg.
	InitReg  float64
	RegScale float64
	MaxReg   float64
}

func DefaultHyperparameters() Hyperparameters {
	alphas := make([]float64, 11)
	for i := range alphas {
		alphas[i] = math.Pow(10, -3.0*float64(i)/10.0)
	}
	return Hyperparameters{
		MaxIter:  100,
		CostTol:  1e-4,
		Alphas:   alphas,
		InitReg:  1e-6,
		RegScale: 10.0,
		MaxReg:   1e10,
	}
}

func (h Hyperparameters) validate() error {
	if h.MaxIter < 1 {
		return fmt.Errorf("ilqr: MaxIter must be positive, got %d", h.MaxIter)
	}
	if h.CostTol <= 0 {
		return fmt.Errorf("ilqr: CostTol must be positive, got %v", h.CostTol)
	}
	if len(h.Alphas) == 0 {
		return fmt.Errorf("ilqr: at least one line search step size required")
	}
	for i, a := range h.Alphas {
		if a <= 0 || a > 1 || math.IsNaN(a) {
			return fmt.Errorf("ilqr: Alphas[%d]=%v outside (0, 1]", i, a)
		}
	}
	if h.InitReg < 0 || math.IsNaN(h.InitReg) {
		return fmt.Errorf("ilqr: InitReg must be non-negative, got %v", h.InitReg)
	}
	if h.RegScale <= 1 {
		return fmt.Errorf("ilqr: RegScale must exceed 1, got %v", h.RegScale)
	}
	if h.MaxReg <= 0 || h.MaxReg < h.InitReg {
		return fmt.Errorf("ilqr: MaxReg must be positive and at least InitReg, got %v", h.MaxReg)
	}
	return nil
}
