package incident

import (
	"sort"

	"github.com/miradorstack/mirador-meltsim/internal/models"
)

// GroundTruth accumulates every incident scheduled across a run. Incidents
// are appended once, on their scheduling day, and read-only afterwards.
type GroundTruth struct {
	incidents []models.Incident
	byID      map[string]int
}

// NewGroundTruth returns an empty catalog.
func NewGroundTruth() *GroundTruth {
	return &GroundTruth{byID: make(map[string]int)}
}

// Append records scheduled incidents in order.
func (g *GroundTruth) Append(incidents ...models.Incident) {
	for _, inc := range incidents {
		g.byID[inc.ID] = len(g.incidents)
		g.incidents = append(g.incidents, inc)
	}
}

// Incidents returns all recorded incidents in scheduling order.
func (g *GroundTruth) Incidents() []models.Incident {
	out := make([]models.Incident, len(g.incidents))
	copy(out, g.incidents)
	return out
}

// ByID looks up an incident.
func (g *GroundTruth) ByID(id string) (models.Incident, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return models.Incident{}, false
	}
	return g.incidents[idx], true
}

// Len returns the number of recorded incidents.
func (g *GroundTruth) Len() int { return len(g.incidents) }

// Summary aggregates run-wide incident counts.
type Summary struct {
	Total     int                         `json:"total_incidents"`
	Primary   int                         `json:"primary_incidents"`
	Cascading int                         `json:"cascading_incidents"`
	ByType    map[models.IncidentKind]int `json:"incident_types"`
}

// Summarize computes cross-cutting counts for validation and reporting.
func (g *GroundTruth) Summarize() Summary {
	summary := Summary{ByType: make(map[models.IncidentKind]int)}
	for _, inc := range g.incidents {
		summary.Total++
		if inc.IsPrimary {
			summary.Primary++
		} else {
			summary.Cascading++
		}
		summary.ByType[inc.Type]++
	}
	return summary
}

// PrimaryByType groups primary incidents by kind, each group in scheduling
// order, with kinds sorted for stable reporting.
func (g *GroundTruth) PrimaryByType() ([]models.IncidentKind, map[models.IncidentKind][]models.Incident) {
	grouped := make(map[models.IncidentKind][]models.Incident)
	for _, inc := range g.incidents {
		if inc.IsPrimary {
			grouped[inc.Type] = append(grouped[inc.Type], inc)
		}
	}
	kinds := make([]models.IncidentKind, 0, len(grouped))
	for kind := range grouped {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds, grouped
}
