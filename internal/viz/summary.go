package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/mpc"
)

var (
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	summaryLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
)

// Summary renders a bordered end-of-run report: run shape, cost progress
// and the recorded metrics in name order.
func Summary(cfg *config.Config, result *mpc.Result) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(summaryLabel.Render(label) + valueStyle.Render(value) + "\n")
	}

	b.WriteString(headerStyle.Render(strings.ToUpper(cfg.Model)) + "\n")
	row("steps", fmt.Sprintf("%d", len(result.Actions)))
	row("horizon", fmt.Sprintf("%d", cfg.Horizon))
	if len(result.Times) > 0 {
		row("simulated time", fmt.Sprintf("%.2fs", result.Times[len(result.Times)-1]))
	}
	if len(result.Costs) > 0 {
		row("first cost", fmt.Sprintf("%.4f", result.Costs[0]))
		row("final cost", fmt.Sprintf("%.4f", result.Costs[len(result.Costs)-1]))
		b.WriteString(summaryLabel.Render("cost") + Sparkline(result.Costs, 30) + "\n")
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row(name, fmt.Sprintf("%.6f", result.Metrics[name]))
	}

	return summaryStyle.Render(strings.TrimRight(b.String(), "\n"))
}
