// Package report renders the human-readable root cause verification report
// that accompanies the generated data set.
package report

import (
	"fmt"
	"strings"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("─", 80)
)

// Render produces the root_cause.txt body: every primary incident grouped by
// type, each with its cascade tree, followed by per-type totals.
func Render(truth *incident.GroundTruth) string {
	var b strings.Builder

	b.WriteString(heavyRule + "\n")
	b.WriteString("ROOT CAUSE ANALYSIS DETAILS\n")
	b.WriteString(heavyRule + "\n\n")
	b.WriteString("This file contains detailed information about all root causes and their\n")
	b.WriteString("resultant cascading incidents. Use this to verify if your RCA model\n")
	b.WriteString("correctly identifies root causes.\n\n")

	kinds, grouped := truth.PrimaryByType()
	for _, kind := range kinds {
		primaries := grouped[kind]
		spec := incident.TypeOf(kind)

		b.WriteString("\n" + lightRule + "\n")
		fmt.Fprintf(&b, "ROOT CAUSE TYPE: %s (%d occurrence(s))\n", kind, len(primaries))
		fmt.Fprintf(&b, "  Metric: %s\n", spec.DrivingMetric)
		fmt.Fprintf(&b, "  Severity: %s\n", spec.Severity)
		fmt.Fprintf(&b, "  Cascading Probability: %.0f%%\n", spec.CascadeProb*100)
		b.WriteString(lightRule + "\n")

		for idx, primary := range primaries {
			duration := primary.Duration().Minutes()
			fmt.Fprintf(&b, "\n  [%d] Primary Incident ID: %s\n", idx+1, primary.ID)
			fmt.Fprintf(&b, "      Service: %s\n", primary.TargetService)
			fmt.Fprintf(&b, "      Host: %s\n", primary.TargetHost)
			fmt.Fprintf(&b, "      Time: %s - %s (%.0f min)\n",
				primary.StartTime.Format("2006-01-02 15:04"),
				primary.EndTime.Format("15:04"), duration)
			fmt.Fprintf(&b, "      Affected Services: %s\n", strings.Join(primary.AffectedServices, ", "))
			fmt.Fprintf(&b, "      Affected Hosts: %d host(s)\n", len(primary.AffectedHosts))

			if len(primary.ChildIDs) == 0 {
				b.WriteString("      └─ No cascading incidents\n")
				continue
			}
			fmt.Fprintf(&b, "      └─ Cascading Incidents (%d):\n", len(primary.ChildIDs))
			for _, childID := range primary.ChildIDs {
				child, ok := truth.ByID(childID)
				if !ok {
					continue
				}
				fmt.Fprintf(&b, "         • %s (%s)\n", child.TargetService, child.Type)
				fmt.Fprintf(&b, "           ID: %s\n", child.ID)
				fmt.Fprintf(&b, "           Time: %s - %s (%.0f min)\n",
					child.StartTime.Format("15:04"),
					child.EndTime.Format("15:04"),
					child.Duration().Minutes())
			}
		}
	}

	b.WriteString("\n" + heavyRule + "\n")
	b.WriteString("SUMMARY BY ROOT CAUSE TYPE\n")
	b.WriteString(heavyRule + "\n")
	for _, kind := range kinds {
		cascading := 0
		for _, primary := range grouped[kind] {
			cascading += len(primary.ChildIDs)
		}
		fmt.Fprintf(&b, "  %-30s: %3d root cause(s) → %3d cascading incident(s)\n",
			kind, len(grouped[kind]), cascading)
	}
	b.WriteString("\n" + heavyRule + "\n")

	return b.String()
}
