package incident

import (
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/models"
)

// ActiveAt returns the subset of incidents whose half-open window
// [start, end) contains ts, preserving input order. Pure function.
func ActiveAt(ts time.Time, incidents []models.Incident) []models.Incident {
	var active []models.Incident
	for _, inc := range incidents {
		if inc.ActiveAt(ts) {
			active = append(active, inc)
		}
	}
	return active
}

// Resolve returns the first active incident whose affected set contains the
// host. One incident owns a host at a time: when windows overlap, list order
// decides, which keeps all signal synthesizers agreeing on the same owner.
func Resolve(hostID string, active []models.Incident) (models.Incident, bool) {
	for _, inc := range active {
		if inc.Affects(hostID) {
			return inc, true
		}
	}
	return models.Incident{}, false
}

// ResolveService returns the first active incident affecting the service.
func ResolveService(service string, active []models.Incident) (models.Incident, bool) {
	for _, inc := range active {
		if inc.AffectsService(service) {
			return inc, true
		}
	}
	return models.Incident{}, false
}
