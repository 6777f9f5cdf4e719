package lab

import (
	"fmt"
	"sort"

	"github.com/gokhanalcan/tox/internal/integrators"
	"github.com/gokhanalcan/tox/internal/models"
	"github.com/gokhanalcan/tox/internal/ocp"
)

type Registry struct {
	systems  map[string]func() ocp.System
	steppers map[string]func() integrators.Stepper
}

func NewRegistry() *Registry {
	r := &Registry{
		systems:  make(map[string]func() ocp.System),
		steppers: make(map[string]func() integrators.Stepper),
	}

	r.systems["pendulum"] = func() ocp.System { return models.NewPendulum() }
	r.systems["cartpole"] = func() ocp.System { return models.NewCartPole() }
	r.systems["double_pendulum"] = func() ocp.System { return models.NewDoublePendulum() }
	r.systems["drone"] = func() ocp.System { return models.NewDrone() }

	r.steppers["euler"] = func() integrators.Stepper { return integrators.NewEuler() }
	r.steppers["rk4"] = func() integrators.Stepper { return integrators.NewRK4() }
	r.steppers["rk45"] = func() integrators.Stepper { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetSystem(name string) (ocp.System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, fmt.Errorf("lab: unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetStepper(name string) (integrators.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("lab: unknown stepper: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListSystems() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSteppers() []string {
	names := make([]string, 0, len(r.steppers))
	for name := range r.steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyParams pushes named physical parameters into a system that accepts
// them. Unknown keys surface as errors rather than being dropped.
func applyParams(sys ocp.System, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	cfg, ok := sys.(ocp.Configurable)
	if !ok {
		return fmt.Errorf("lab: model does not accept parameters")
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.SetParam(k, params[k]); err != nil {
			return fmt.Errorf("lab: %w", err)
		}
	}
	return nil
}
