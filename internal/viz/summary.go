package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nhuang-x/nbody-simulation/internal/storage"
)

// Summary renders run metadata as a bordered panel.
func Summary(meta storage.RunMetadata) string {
	var b strings.Builder

	title := "N-BODY RUN"
	if meta.ID != "" {
		title += "  " + meta.ID
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	b.WriteString(row("source", meta.Source) + "\n")
	b.WriteString(row("solver", meta.Solver) + "\n")
	b.WriteString(row("bodies", fmt.Sprintf("%d", meta.Bodies)) + "\n")
	b.WriteString(row("steps", fmt.Sprintf("%d", meta.Steps)) + "\n")
	b.WriteString(row("dt", fmt.Sprintf("%.4g s", meta.Dt)) + "\n")
	b.WriteString(row("total time", fmt.Sprintf("%.4g s", meta.TotalTime)) + "\n")
	b.WriteString(row("energy drift", fmt.Sprintf("%.3e", meta.EnergyDrift)))

	if len(meta.Metrics) > 0 {
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("\n\n" + titleStyle.Render("METRICS"))
		for _, name := range names {
			b.WriteString("\n" + row(name, fmt.Sprintf("%.3e", meta.Metrics[name])))
		}
	}

	return panelStyle.Render(b.String())
}
