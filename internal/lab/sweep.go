package lab

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/ocp"
)

// Sweep varies one physical parameter of the plant across an even grid and
// runs a full closed-loop experiment at every value. All runs share the rest
// of the configuration, including the seed, so differences in outcome come
// from the parameter alone.
type Sweep struct {
	Param string
	Min   float64
	Max   float64
	Count int
}

// SweepPoint is the outcome of one run of a sweep.
type SweepPoint struct {
	Value     float64
	FinalCost float64
	Metrics   map[string]float64
	Err       error
}

// RunSweep executes the sweep, one goroutine per grid point. A point whose
// run fails carries the error instead of aborting the rest of the grid.
func RunSweep(ctx context.Context, base *config.Config, sw Sweep) ([]SweepPoint, error) {
	if sw.Count < 2 {
		return nil, fmt.Errorf("lab: sweep needs at least 2 points, got %d", sw.Count)
	}
	if sw.Min >= sw.Max {
		return nil, fmt.Errorf("lab: sweep range [%g, %g] is empty", sw.Min, sw.Max)
	}

	sys, err := NewRegistry().GetSystem(base.Model)
	if err != nil {
		return nil, err
	}
	tunable, ok := sys.(ocp.Configurable)
	if !ok {
		return nil, fmt.Errorf("lab: model %s has no tunable parameters", base.Model)
	}
	params := tunable.GetParams()
	if _, ok := params[sw.Param]; !ok {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("lab: model %s has no parameter %q (available: %v)",
			base.Model, sw.Param, names)
	}

	points := make([]SweepPoint, sw.Count)
	step := (sw.Max - sw.Min) / float64(sw.Count-1)

	var wg sync.WaitGroup
	for i := 0; i < sw.Count; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			points[idx] = runPoint(ctx, base, sw.Param, sw.Min+float64(idx)*step)
		}(i)
	}
	wg.Wait()

	return points, nil
}

func runPoint(ctx context.Context, base *config.Config, param string, value float64) SweepPoint {
	pt := SweepPoint{Value: value}

	// Each point gets its own params map; the base config is shared across
	// goroutines and must stay untouched.
	cfg := *base
	params := make(map[string]float64, len(base.Params)+1)
	for k, v := range base.Params {
		params[k] = v
	}
	params[param] = value
	cfg.Params = params

	exp, err := New(&cfg)
	if err != nil {
		pt.Err = err
		return pt
	}
	result, err := exp.Run(ctx)
	if err != nil {
		pt.Err = err
		return pt
	}

	pt.Metrics = result.Metrics
	if n := len(result.Costs); n > 0 {
		pt.FinalCost = result.Costs[n-1]
	}
	return pt
}
