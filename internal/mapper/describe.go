package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miradorstack/mirador-meltsim/internal/models"
)

const listLimit = 20

var rule = strings.Repeat("=", 80)

// Describe renders a mapping as the human-readable report shown by the CLI.
func (m *Mapping) Describe() string {
	inc := m.Incident

	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "INCIDENT MAPPING: %s\n", inc.ID)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Type: %s\n", inc.Type)
	fmt.Fprintf(&b, "Service: %s\n", inc.TargetService)
	fmt.Fprintf(&b, "Host: %s\n", inc.TargetHost)
	fmt.Fprintf(&b, "Time: %s - %s\n", inc.StartTime.Format("2006-01-02 15:04"), inc.EndTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Affected Services: %s\n", strings.Join(inc.AffectedServices, ", "))
	fmt.Fprintf(&b, "Affected Hosts: %d host(s)\n\n", len(inc.AffectedHosts))

	linked := 0
	eventCounts := make(map[string]int)
	for _, e := range m.Events {
		if e.IncidentID == inc.ID {
			linked++
		}
		eventCounts[string(e.Type)]++
	}
	fmt.Fprintf(&b, "EVENTS: %d total (%d directly linked)\n", len(m.Events), linked)
	for _, kind := range sortedKeys(eventCounts) {
		fmt.Fprintf(&b, "  - %s: %d\n", kind, eventCounts[kind])
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "METRICS: %d entries\n\n", len(m.Metrics))

	degraded := 0
	levelCounts := make(map[string]int)
	for _, l := range m.Logs {
		if l.Level == models.LogError || l.Level == models.LogWarning {
			degraded++
		}
		levelCounts[string(l.Level)]++
	}
	fmt.Fprintf(&b, "LOGS: %d total (%d errors/warnings)\n", len(m.Logs), degraded)
	for _, level := range sortedKeys(levelCounts) {
		fmt.Fprintf(&b, "  - %s: %d\n", level, levelCounts[level])
	}
	b.WriteString("\n")

	failed := 0
	totalDuration := 0.0
	for _, t := range m.Traces {
		if t.StatusCode == 500 {
			failed++
		}
		totalDuration += t.DurationMs
	}
	fmt.Fprintf(&b, "TRACES: %d total (%d failed)\n", len(m.Traces), failed)
	if len(m.Traces) > 0 {
		fmt.Fprintf(&b, "  Average duration: %.2f ms\n", totalDuration/float64(len(m.Traces)))
	}
	b.WriteString("\n" + rule + "\n")

	return b.String()
}

// ListText renders the incident listing, truncated past the first 20.
func (m *Mapper) ListText() string {
	incidents := m.catalog.Incidents
	primary := 0
	for _, inc := range incidents {
		if inc.IsPrimary {
			primary++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total Incidents: %d\n", len(incidents))
	fmt.Fprintf(&b, "Primary: %d\n", primary)
	fmt.Fprintf(&b, "Cascading: %d\n\n", len(incidents)-primary)
	b.WriteString("Incidents:\n")
	b.WriteString(strings.Repeat("-", 80) + "\n")

	shown := incidents
	if len(shown) > listLimit {
		shown = shown[:listLimit]
	}
	for i, inc := range shown {
		fmt.Fprintf(&b, "%d. %s\n", i+1, inc.ID)
		fmt.Fprintf(&b, "   Type: %s\n", inc.Type)
		fmt.Fprintf(&b, "   Service: %s\n", inc.TargetService)
		fmt.Fprintf(&b, "   Time: %s - %s\n\n", inc.StartTime.Format("2006-01-02 15:04"), inc.EndTime.Format("2006-01-02 15:04"))
	}
	if len(incidents) > listLimit {
		fmt.Fprintf(&b, "... and %d more incidents\n", len(incidents)-listLimit)
	}
	return b.String()
}

// SummaryText renders catalog-wide statistics.
func (m *Mapper) SummaryText() string {
	incidents := m.catalog.Incidents
	summary := m.catalog.Summary

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("INCIDENT SUMMARY\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total Incidents: %d\n", summary.Total)
	fmt.Fprintf(&b, "Primary Incidents: %d\n", summary.Primary)
	fmt.Fprintf(&b, "Cascading Incidents: %d\n\n", summary.Cascading)

	type typeCount struct {
		kind  models.IncidentKind
		count int
	}
	counts := make([]typeCount, 0, len(summary.ByType))
	for kind, count := range summary.ByType {
		counts = append(counts, typeCount{kind, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].kind < counts[j].kind
	})
	b.WriteString("Incidents by Type:\n")
	for _, tc := range counts {
		fmt.Fprintf(&b, "  %-30s: %3d\n", tc.kind, tc.count)
	}
	b.WriteString("\n")

	if len(incidents) > 0 {
		first, last := incidents[0].StartTime, incidents[0].StartTime
		for _, inc := range incidents[1:] {
			if inc.StartTime.Before(first) {
				first = inc.StartTime
			}
			if inc.StartTime.After(last) {
				last = inc.StartTime
			}
		}
		fmt.Fprintf(&b, "Date Range: %s to %s\n", first.Format("2006-01-02"), last.Format("2006-01-02"))
	}
	b.WriteString(rule + "\n")
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
