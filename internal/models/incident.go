package models

import "time"

// Severity captures incident priority levels.
type Severity string

const (
	SeverityP1 Severity = "P1"
	SeverityP2 Severity = "P2"
	SeverityP3 Severity = "P3"
)

// IncidentKind enumerates the fixed incident catalog.
type IncidentKind string

const (
	KindMemoryLeak            IncidentKind = "MEMORY_LEAK"
	KindDBContention          IncidentKind = "DB_CONTENTION"
	KindNetworkPacketLoss     IncidentKind = "NETWORK_PACKET_LOSS"
	KindCPUSaturation         IncidentKind = "CPU_SATURATION"
	KindCascadingFailure      IncidentKind = "CASCADING_FAILURE"
	KindNetworkPartition      IncidentKind = "NETWORK_PARTITION"
	KindDependencyDegradation IncidentKind = "DEPENDENCY_DEGRADATION"
	KindConfigMismatch        IncidentKind = "CONFIG_MISMATCH"
	KindResourceExhaustion    IncidentKind = "RESOURCE_EXHAUSTION"
)

// EffectModel tags how an incident kind distorts signals over its lifetime.
type EffectModel string

const (
	EffectRampUp       EffectModel = "ramp_up"
	EffectSpike        EffectModel = "spike"
	EffectNoiseSpike   EffectModel = "noise_spike"
	EffectPlateau      EffectModel = "plateau"
	EffectCascade      EffectModel = "cascade"
	EffectRegional     EffectModel = "regional"
	EffectGradual      EffectModel = "gradual"
	EffectIntermittent EffectModel = "intermittent"
	EffectShared       EffectModel = "shared"
)

// IncidentType is a catalog entry describing one incident kind.
type IncidentType struct {
	Kind          IncidentKind `json:"kind"`
	DrivingMetric string       `json:"metric"`
	Effect        EffectModel  `json:"effect"`
	Severity      Severity     `json:"severity"`
	CascadeProb   float64      `json:"cascading_prob"`
}

// Incident is one scheduled outage, primary or cascading. It is built by the
// scheduler and never mutated afterwards.
type Incident struct {
	ID               string       `json:"id"`
	Type             IncidentKind `json:"type"`
	TargetHost       string       `json:"target_host"`
	TargetService    string       `json:"target_service"`
	StartTime        time.Time    `json:"start_time"`
	EndTime          time.Time    `json:"end_time"`
	Severity         Severity     `json:"severity"`
	DrivingMetric    string       `json:"driving_metric"`
	IsPrimary        bool         `json:"is_primary"`
	ParentID         string       `json:"parent_incident_id,omitempty"`
	AffectedHosts    []string     `json:"affected_hosts"`
	AffectedServices []string     `json:"affected_services"`
	ChildIDs         []string     `json:"cascading_incidents,omitempty"`
}

// ActiveAt reports whether ts falls inside the incident's half-open window.
func (i Incident) ActiveAt(ts time.Time) bool {
	return !ts.Before(i.StartTime) && ts.Before(i.EndTime)
}

// Affects reports whether the incident degrades the given host.
func (i Incident) Affects(hostID string) bool {
	for _, h := range i.AffectedHosts {
		if h == hostID {
			return true
		}
	}
	return false
}

// AffectsService reports whether the incident degrades the given service.
func (i Incident) AffectsService(service string) bool {
	for _, s := range i.AffectedServices {
		if s == service {
			return true
		}
	}
	return false
}

// Duration returns the incident window length.
func (i Incident) Duration() time.Duration {
	return i.EndTime.Sub(i.StartTime)
}
