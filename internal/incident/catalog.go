// Package incident implements the incident simulation core: the static type
// catalog, per-day scheduling with cascade propagation over the service
// dependency graph, the per-timestamp active-incident view, and the run-wide
// ground-truth catalog.
package incident

import "github.com/miradorstack/mirador-meltsim/internal/models"

// TypeSpec is one immutable catalog entry plus its scheduling weight.
type TypeSpec struct {
	models.IncidentType
	Weight float64
}

// Catalog order is fixed so weighted draws are reproducible for a given seed.
var catalog = []TypeSpec{
	{models.IncidentType{Kind: models.KindMemoryLeak, DrivingMetric: "memory_usage", Effect: models.EffectRampUp, Severity: models.SeverityP3, CascadeProb: 0.4}, 0.15},
	{models.IncidentType{Kind: models.KindDBContention, DrivingMetric: "db_connection_pool", Effect: models.EffectSpike, Severity: models.SeverityP2, CascadeProb: 0.8}, 0.15},
	{models.IncidentType{Kind: models.KindNetworkPacketLoss, DrivingMetric: "packet_loss", Effect: models.EffectNoiseSpike, Severity: models.SeverityP2, CascadeProb: 0.3}, 0.10},
	{models.IncidentType{Kind: models.KindCPUSaturation, DrivingMetric: "cpu_utilization", Effect: models.EffectPlateau, Severity: models.SeverityP1, CascadeProb: 0.5}, 0.10},
	{models.IncidentType{Kind: models.KindCascadingFailure, DrivingMetric: "service_availability", Effect: models.EffectCascade, Severity: models.SeverityP1, CascadeProb: 0.9}, 0.15},
	{models.IncidentType{Kind: models.KindNetworkPartition, DrivingMetric: "network_connectivity", Effect: models.EffectRegional, Severity: models.SeverityP1, CascadeProb: 1.0}, 0.10},
	{models.IncidentType{Kind: models.KindDependencyDegradation, DrivingMetric: "upstream_latency", Effect: models.EffectGradual, Severity: models.SeverityP2, CascadeProb: 0.7}, 0.15},
	{models.IncidentType{Kind: models.KindConfigMismatch, DrivingMetric: "config_drift", Effect: models.EffectIntermittent, Severity: models.SeverityP3, CascadeProb: 0.2}, 0.05},
	{models.IncidentType{Kind: models.KindResourceExhaustion, DrivingMetric: "resource_pool", Effect: models.EffectShared, Severity: models.SeverityP2, CascadeProb: 0.6}, 0.05},
}

// Types returns the full catalog in stable order.
func Types() []TypeSpec {
	out := make([]TypeSpec, len(catalog))
	copy(out, catalog)
	return out
}

// TypeOf returns the catalog entry for a kind. Unknown kinds fall back to the
// dependency-degradation entry, the most generic degradation model.
func TypeOf(kind models.IncidentKind) TypeSpec {
	for _, spec := range catalog {
		if spec.Kind == kind {
			return spec
		}
	}
	return TypeOf(models.KindDependencyDegradation)
}
