package synth

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/topology"
	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

const (
	deploymentProb         = 0.008
	autoscaleBaseProb      = 0.02
	autoscaleIncidentProb  = 0.05
	configChangeProb       = 0.01
	restartBaseProb        = 0.003
	restartMemLeakProb     = 0.02
	restartResourceProb    = 0.01
	userActionBaseProb     = 0.005
	userActionIncidentProb = 0.015

	preferAffectedServiceProb = 0.6
	preferAffectedHostProb    = 0.7

	incidentUpdatePeriodMinutes = 30
)

// EventSynthesizer emits operational events: background noise (deployments,
// config changes, health checks), incident-correlated activity (autoscaling,
// restarts, user actions), and the deterministic incident lifecycle
// (ALERT_TRIGGER, CASCADE_TRIGGER, INCIDENT_UPDATE, INCIDENT_RESOLVED).
type EventSynthesizer struct {
	rng         *rand.Rand
	granularity time.Duration
}

// NewEventSynthesizer constructs an event synthesizer for the given sampling
// granularity. The granularity bounds the lifecycle trigger windows so each
// lifecycle event fires exactly once per incident.
func NewEventSynthesizer(rng *rand.Rand, granularity time.Duration) *EventSynthesizer {
	return &EventSynthesizer{rng: rng, granularity: granularity}
}

// Emit generates the events for one timestep. visible is every incident that
// can emit lifecycle events on the current day, including ones already ended;
// active is the subset whose window contains ts.
func (s *EventSynthesizer) Emit(ts time.Time, visible, active []models.Incident, topo *topology.Topology) []models.EventRecord {
	var events []models.EventRecord

	events = append(events, s.deployment(ts, topo)...)
	events = append(events, s.maintenance(ts, topo)...)
	events = append(events, s.autoscale(ts, active, topo)...)
	events = append(events, s.configChange(ts, topo)...)
	events = append(events, s.healthChecks(ts, active, topo)...)
	events = append(events, s.restarts(ts, active, topo)...)
	events = append(events, s.lifecycle(ts, visible, topo)...)
	events = append(events, s.userActions(ts, active, topo)...)

	return events
}

func (s *EventSynthesizer) deployment(ts time.Time, topo *topology.Topology) []models.EventRecord {
	if s.rng.Float64() >= deploymentProb {
		return nil
	}
	service := s.choice(topo.Services())
	version := fmt.Sprintf("v2.%d.%d", 4+s.rng.Intn(3), s.rng.Intn(10))
	status := s.choice([]string{"SUCCESS", "SUCCESS", "SUCCESS", "ROLLBACK"})

	meta := map[string]string{
		"deployed_by": "user-" + s.choice([]string{"alice", "bob", "charlie", "diana"}),
	}
	if s.rng.Float64() < 0.25 {
		meta["rollback_reason"] = s.choice([]string{"Health check failed", "Error rate spike", "Latency increase"})
	}

	return []models.EventRecord{{
		Timestamp:    ts,
		Type:         models.EventDeployment,
		Service:      service,
		Region:       s.choice(topo.Regions()),
		Version:      version,
		DeploymentID: utils.UUID(s.rng),
		Status:       status,
		Message:      fmt.Sprintf("Deployment %s to %s", version, service),
		Metadata:     meta,
	}}
}

func (s *EventSynthesizer) maintenance(ts time.Time, topo *topology.Topology) []models.EventRecord {
	switch {
	case ts.Hour() == 2 && ts.Minute() == 0:
		return []models.EventRecord{{
			Timestamp:        ts,
			Type:             models.EventMaintenance,
			Status:           "STARTED",
			Message:          "Scheduled maintenance window started",
			AffectedServices: s.sample(topo.Services(), 1+s.rng.Intn(3)),
		}}
	case ts.Hour() == 4 && ts.Minute() == 45:
		return []models.EventRecord{{
			Timestamp: ts,
			Type:      models.EventMaintenance,
			Status:    "COMPLETED",
			Message:   "Scheduled maintenance window completed",
		}}
	}
	return nil
}

func (s *EventSynthesizer) autoscale(ts time.Time, active []models.Incident, topo *topology.Topology) []models.EventRecord {
	prob := autoscaleBaseProb
	if len(active) > 0 {
		prob = autoscaleIncidentProb
	}
	if s.rng.Float64() >= prob {
		return nil
	}

	var affectedServices []string
	for _, inc := range active {
		affectedServices = append(affectedServices, inc.AffectedServices...)
	}

	var (
		service string
		action  string
		inc     *models.Incident
	)
	if len(affectedServices) > 0 && s.rng.Float64() < preferAffectedServiceProb {
		service = s.choice(affectedServices)
		action = "SCALE_UP"
		for i := range active {
			if active[i].AffectsService(service) {
				inc = &active[i]
				break
			}
		}
	} else {
		service = s.choice(topo.Services())
		action = s.choice([]string{"SCALE_UP", "SCALE_DOWN", "SCALE_UP"})
	}

	var trigger string
	if inc != nil {
		switch inc.Type {
		case models.KindCPUSaturation:
			trigger = "CPU threshold"
		case models.KindMemoryLeak:
			trigger = "Memory threshold"
		case models.KindDBContention, models.KindResourceExhaustion:
			trigger = "Request rate"
		default:
			trigger = "Latency threshold"
		}
	} else {
		trigger = s.choice([]string{"CPU threshold", "Memory threshold", "Request rate", "Latency threshold"})
	}

	newReplicas := 1 + s.rng.Intn(5)
	if action == "SCALE_UP" {
		newReplicas = 3 + s.rng.Intn(8)
	}

	event := models.EventRecord{
		Timestamp:       ts,
		Type:            models.EventAutoscale,
		Service:         service,
		Action:          action,
		CurrentReplicas: 2 + s.rng.Intn(7),
		NewReplicas:     newReplicas,
		Trigger:         trigger,
		Message:         fmt.Sprintf("Auto-scaling %s: %s", service, action),
	}
	if inc != nil {
		event.IncidentID = inc.ID
		event.IncidentType = inc.Type
	}
	return []models.EventRecord{event}
}

func (s *EventSynthesizer) configChange(ts time.Time, topo *topology.Topology) []models.EventRecord {
	if s.rng.Float64() >= configChangeProb {
		return nil
	}
	service := s.choice(topo.Services())
	key := s.choice([]string{"feature_flag", "timeout", "connection_pool", "cache_size", "rate_limit"})
	return []models.EventRecord{{
		Timestamp: ts,
		Type:      models.EventConfigChange,
		Service:   service,
		ConfigKey: key,
		OldValue:  strconv.Itoa(10 + s.rng.Intn(91)),
		NewValue:  strconv.Itoa(10 + s.rng.Intn(91)),
		ChangedBy: "user-" + s.choice([]string{"alice", "bob", "charlie"}),
		Message:   fmt.Sprintf("Configuration change: %s updated for %s", key, service),
	}}
}

func (s *EventSynthesizer) healthChecks(ts time.Time, active []models.Incident, topo *topology.Topology) []models.EventRecord {
	if ts.Minute()%30 != 0 {
		return nil
	}

	var events []models.EventRecord
	for _, service := range s.sample(topo.Services(), 1+s.rng.Intn(3)) {
		var inc *models.Incident
		for i := range active {
			if active[i].AffectsService(service) {
				inc = &active[i]
				break
			}
		}

		var status, liveness, readiness string
		if inc != nil {
			status = s.choice([]string{"DEGRADED", "DEGRADED", "UNHEALTHY"})
			liveness = "PASS"
			if s.rng.Float64() < 0.7 {
				liveness = "FAIL"
			}
			readiness = "PASS"
			if s.rng.Float64() < 0.6 {
				readiness = "FAIL"
			}
		} else {
			status = s.choice([]string{"HEALTHY", "HEALTHY", "HEALTHY", "DEGRADED"})
			if status == "HEALTHY" {
				liveness, readiness = "PASS", "PASS"
			} else {
				liveness = s.choice([]string{"PASS", "FAIL"})
				readiness = s.choice([]string{"PASS", "FAIL"})
			}
		}

		event := models.EventRecord{
			Timestamp: ts,
			Type:      models.EventHealthCheck,
			Service:   service,
			Status:    status,
			Checks: map[string]string{
				"liveness":  liveness,
				"readiness": readiness,
				"startup":   "PASS",
			},
			Message: fmt.Sprintf("Health check for %s: %s", service, status),
		}
		if inc != nil {
			event.IncidentID = inc.ID
			event.IncidentType = inc.Type
		}
		events = append(events, event)
	}
	return events
}

func (s *EventSynthesizer) restarts(ts time.Time, active []models.Incident, topo *topology.Topology) []models.EventRecord {
	prob := restartBaseProb
	reasons := []string{"OOM kill", "Crash loop", "Manual restart", "Pod eviction", "Node maintenance"}
	for _, inc := range active {
		switch inc.Type {
		case models.KindMemoryLeak:
			prob = restartMemLeakProb
			reasons = []string{"OOM kill", "OOM kill", "Crash loop", "Manual restart"}
		case models.KindCPUSaturation, models.KindResourceExhaustion:
			prob = restartResourceProb
			reasons = []string{"Crash loop", "OOM kill", "Manual restart"}
		}
	}
	if s.rng.Float64() >= prob {
		return nil
	}

	var affectedHosts []string
	for _, inc := range active {
		affectedHosts = append(affectedHosts, inc.AffectedHosts...)
	}

	var (
		node topology.Node
		inc  *models.Incident
	)
	if len(affectedHosts) > 0 && s.rng.Float64() < preferAffectedHostProb {
		hostID := s.choice(affectedHosts)
		if n, ok := topo.NodeByHost(hostID); ok {
			node = n
		} else {
			node = topo.RandomNode(s.rng)
		}
		for i := range active {
			if active[i].Affects(hostID) {
				inc = &active[i]
				break
			}
		}
	} else {
		node = topo.RandomNode(s.rng)
	}

	reason := s.choice(reasons)
	event := models.EventRecord{
		Timestamp:    ts,
		Type:         models.EventServiceRestart,
		Service:      node.Service,
		HostID:       node.HostID,
		Region:       node.Region,
		Reason:       reason,
		RestartCount: 1 + s.rng.Intn(5),
		Message:      fmt.Sprintf("Service restart: %s on %s - %s", node.Service, node.HostID, reason),
	}
	if inc != nil {
		event.IncidentID = inc.ID
		event.IncidentType = inc.Type
	}
	return []models.EventRecord{event}
}

// lifecycle emits the deterministic incident lifecycle events. Trigger
// windows are half-open and one granularity wide, so each event fires on
// exactly one timestep regardless of sampling resolution.
func (s *EventSynthesizer) lifecycle(ts time.Time, visible []models.Incident, topo *topology.Topology) []models.EventRecord {
	granMinutes := s.granularity.Minutes()

	var events []models.EventRecord
	for _, inc := range visible {
		sinceStart := ts.Sub(inc.StartTime)
		toEnd := inc.EndTime.Sub(ts)
		sinceStartMin := sinceStart.Minutes()

		if sinceStart >= 0 && sinceStart < s.granularity {
			if inc.IsPrimary {
				events = append(events, models.EventRecord{
					Timestamp:      ts,
					Type:           models.EventAlertTrigger,
					Severity:       severityLabel(inc.Severity),
					Source:         inc.TargetHost,
					Service:        inc.TargetService,
					Region:         s.regionOf(topo, inc.TargetHost),
					IncidentID:     inc.ID,
					IncidentType:   inc.Type,
					Metric:         inc.DrivingMetric,
					ThresholdValue: 80 + s.rng.Intn(16),
					CurrentValue:   95 + s.rng.Intn(6),
					Message:        fmt.Sprintf("Threshold breach: %s exceeded limit. Incident type: %s", inc.DrivingMetric, inc.Type),
					Metadata: map[string]string{
						"alert_rule":          inc.DrivingMetric + "_threshold",
						"notification_sent":   "true",
						"oncall_acknowledged": strconv.FormatBool(s.rng.Intn(2) == 0),
					},
				})
			} else {
				events = append(events, models.EventRecord{
					Timestamp:        ts,
					Type:             models.EventCascadeTrigger,
					Severity:         "HIGH",
					Source:           inc.TargetHost,
					Service:          inc.TargetService,
					Region:           s.regionOf(topo, inc.TargetHost),
					IncidentID:       inc.ID,
					ParentIncidentID: inc.ParentID,
					UpstreamService:  inc.TargetService,
					Message:          fmt.Sprintf("Cascading failure detected: %s affected by upstream issue", inc.TargetService),
					Metadata: map[string]string{
						"dependency_path":           inc.TargetService,
						"propagation_delay_minutes": strconv.Itoa(int(sinceStartMin)),
					},
				})
			}
		}

		if inc.IsPrimary && sinceStart > 0 && toEnd > 0 && math.Mod(sinceStartMin, incidentUpdatePeriodMinutes) < granMinutes {
			updateType := s.choice([]string{"ESCALATION", "UPDATE", "MITIGATION_ATTEMPT"})
			events = append(events, models.EventRecord{
				Timestamp:          ts,
				Type:               models.EventIncidentUpdate,
				IncidentID:         inc.ID,
				UpdateType:         updateType,
				Severity:           string(inc.Severity),
				Service:            inc.TargetService,
				AffectedHostsCount: len(inc.AffectedHosts),
				AffectedServices:   inc.AffectedServices,
				Message:            s.updateMessage(updateType, inc),
				Metadata: map[string]string{
					"updated_by": "oncall-" + s.choice([]string{"engineer1", "engineer2", "sre-team"}),
					"status":     s.choice([]string{"INVESTIGATING", "MITIGATING", "MONITORING"}),
					"impact":     s.choice([]string{"LOW", "MEDIUM", "HIGH"}),
				},
			})
		}

		if sinceEnd := ts.Sub(inc.EndTime); sinceEnd >= 0 && sinceEnd < s.granularity {
			durationMin := int(inc.Duration().Minutes())
			postmortem := "false"
			if durationMin > 60 {
				postmortem = strconv.FormatBool(s.rng.Intn(2) == 0)
			}
			events = append(events, models.EventRecord{
				Timestamp:        ts,
				Type:             models.EventIncidentResolved,
				Severity:         "INFO",
				Source:           inc.TargetHost,
				Service:          inc.TargetService,
				Region:           s.regionOf(topo, inc.TargetHost),
				IncidentID:       inc.ID,
				IncidentType:     inc.Type,
				DurationMinutes:  durationMin,
				ResolutionAction: s.choice([]string{"Auto-recovery", "Manual fix", "Rollback", "Configuration change", "Resource scaling"}),
				Message:          fmt.Sprintf("Incident resolved: %s after %d minutes", inc.Type, durationMin),
				Metadata: map[string]string{
					"resolved_by":           "oncall-" + s.choice([]string{"engineer1", "engineer2", "auto-recovery"}),
					"root_cause_identified": strconv.FormatBool(s.rng.Intn(2) == 0),
					"postmortem_scheduled":  postmortem,
				},
			})
		}
	}
	return events
}

func (s *EventSynthesizer) userActions(ts time.Time, active []models.Incident, topo *topology.Topology) []models.EventRecord {
	prob := userActionBaseProb
	if len(active) > 0 {
		prob = userActionIncidentProb
	}
	if s.rng.Float64() >= prob {
		return nil
	}

	var affectedServices []string
	for _, inc := range active {
		affectedServices = append(affectedServices, inc.AffectedServices...)
	}

	var (
		service    string
		inc        *models.Incident
		actionType string
		reason     string
	)
	if len(affectedServices) > 0 && s.rng.Float64() < preferAffectedHostProb {
		service = s.choice(affectedServices)
		for i := range active {
			if active[i].AffectsService(service) {
				inc = &active[i]
				break
			}
		}
		actionType = s.choice([]string{"FORCE_RESTART", "TRAFFIC_SHIFT", "MANUAL_ROLLBACK", "FEATURE_TOGGLE"})
		reason = s.choice([]string{"Error spike", "Performance issue", "Customer report"})
	} else {
		service = s.choice(topo.Services())
		actionType = s.choice([]string{"MANUAL_ROLLBACK", "FORCE_RESTART", "TRAFFIC_SHIFT", "FEATURE_TOGGLE"})
		reason = s.choice([]string{"Performance issue", "Error spike", "Customer report", "Preventive action"})
	}

	event := models.EventRecord{
		Timestamp: ts,
		Type:      models.EventUserAction,
		Action:    actionType,
		Service:   service,
		User:      "user-" + s.choice([]string{"alice", "bob", "charlie", "diana"}),
		Reason:    reason,
		Message:   fmt.Sprintf("Manual action: %s on %s", actionType, service),
		Metadata: map[string]string{
			"action_id":   utils.UUID(s.rng),
			"approved_by": "manager-" + s.choice([]string{"alice", "bob"}),
		},
	}
	if inc != nil {
		event.IncidentID = inc.ID
		event.IncidentType = inc.Type
	}
	return []models.EventRecord{event}
}

func (s *EventSynthesizer) updateMessage(updateType string, inc models.Incident) string {
	switch updateType {
	case "ESCALATION":
		id := inc.ID
		if len(id) > 8 {
			id = id[:8]
		}
		return fmt.Sprintf("Incident %s escalated to %s - %s still affected", id, inc.Severity, inc.TargetService)
	case "UPDATE":
		return fmt.Sprintf("Incident update: %s affecting %d hosts, investigation ongoing", inc.Type, len(inc.AffectedHosts))
	case "MITIGATION_ATTEMPT":
		mitigation := s.choice([]string{"Rolling restart initiated", "Traffic shifted to healthy region", "Configuration hotfix applied", "Resource scaling triggered"})
		return fmt.Sprintf("Mitigation attempt: %s for %s", mitigation, inc.TargetService)
	}
	return fmt.Sprintf("Incident %s update", inc.Type)
}

// severityLabel maps incident priority onto the alerting severity scale.
func severityLabel(sev models.Severity) string {
	switch sev {
	case models.SeverityP1:
		return "CRITICAL"
	case models.SeverityP2:
		return "HIGH"
	default:
		return "MEDIUM"
	}
}

func (s *EventSynthesizer) regionOf(topo *topology.Topology, hostID string) string {
	if node, ok := topo.NodeByHost(hostID); ok {
		return node.Region
	}
	return "unknown"
}

func (s *EventSynthesizer) choice(values []string) string {
	return values[s.rng.Intn(len(values))]
}

// sample returns k distinct values in random order.
func (s *EventSynthesizer) sample(values []string, k int) []string {
	if k > len(values) {
		k = len(values)
	}
	picked := append([]string(nil), values...)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:k]
}
