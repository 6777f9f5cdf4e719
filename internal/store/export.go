package store

import (
	"encoding/json"
	"io"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/mpc"
)

type ExportData struct {
	Model          string             `json:"model"`
	Stepper        string             `json:"stepper"`
	SimulationStep float64            `json:"simulation_step"`
	Downsampling   int                `json:"downsampling"`
	Horizon        int                `json:"horizon"`
	Steps          int                `json:"steps"`
	Times          []float64          `json:"times"`
	States         [][]float64        `json:"states"`
	Actions        [][]float64        `json:"actions"`
	Costs          []float64          `json:"costs"`
	Iterations     []int              `json:"iterations"`
	Metrics        map[string]float64 `json:"metrics"`
}

// ExportJSON writes one run as a single indented JSON document.
func ExportJSON(w io.Writer, cfg *config.Config, result *mpc.Result) error {
	data := ExportData{
		Model:          cfg.Model,
		Stepper:        cfg.Stepper,
		SimulationStep: cfg.SimulationStep,
		Downsampling:   cfg.Downsampling,
		Horizon:        cfg.Horizon,
		Steps:          len(result.Actions),
		Times:          result.Times,
		States:         make([][]float64, len(result.States)),
		Actions:        make([][]float64, len(result.Actions)),
		Costs:          result.Costs,
		Iterations:     result.Iters,
		Metrics:        result.Metrics,
	}

	for i, s := range result.States {
		data.States[i] = s
	}
	for i, u := range result.Actions {
		data.Actions[i] = u
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
