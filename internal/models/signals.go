package models

import "time"

// LogLevel enumerates emitted log severities.
type LogLevel string

const (
	LogInfo    LogLevel = "INFO"
	LogWarning LogLevel = "WARNING"
	LogError   LogLevel = "ERROR"
)

// MetricValues carries one sampling interval of host metrics. JSON keys use
// the canonical metric names consumers filter on.
type MetricValues struct {
	CPUUtil          float64 `json:"system.cpu.util"`
	MemUtil          float64 `json:"system.mem.util"`
	LatencyMs        float64 `json:"net.latency.ms"`
	ErrorRate        float64 `json:"app.error_rate"`
	RequestCount     int     `json:"app.request_count"`
	PacketLossPct    float64 `json:"net.packet_loss.pct"`
	DBConnPoolUtil   float64 `json:"db.connection_pool.util"`
	ResourcePoolUtil float64 `json:"resource.pool.util"`
}

// MetricRecord is one per-host metric sample.
type MetricRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	HostID    string            `json:"host_id"`
	Service   string            `json:"service"`
	Region    string            `json:"region"`
	Provider  string            `json:"cloud_provider"`
	Metrics   MetricValues      `json:"metrics"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// TraceRecord is one synthetic span per host and interval.
type TraceRecord struct {
	TraceID    string            `json:"trace_id"`
	SpanID     string            `json:"span_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service_name"`
	Operation  string            `json:"operation"`
	DurationMs float64           `json:"duration_ms"`
	StatusCode int               `json:"status_code"`
	Provider   string            `json:"cloud_provider"`
	Region     string            `json:"region"`
	Attributes map[string]string `json:"attributes"`
}

// LogRecord is one log line, correlated to a trace via TraceID.
type LogRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     LogLevel          `json:"level"`
	Service   string            `json:"service"`
	Host      string            `json:"host"`
	Provider  string            `json:"cloud_provider"`
	Region    string            `json:"region"`
	TraceID   string            `json:"trace_id"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventType enumerates operational event kinds.
type EventType string

const (
	EventDeployment       EventType = "DEPLOYMENT"
	EventMaintenance      EventType = "MAINTENANCE_WINDOW"
	EventAutoscale        EventType = "AUTOSCALE"
	EventConfigChange     EventType = "CONFIG_CHANGE"
	EventHealthCheck      EventType = "HEALTH_CHECK"
	EventServiceRestart   EventType = "SERVICE_RESTART"
	EventAlertTrigger     EventType = "ALERT_TRIGGER"
	EventCascadeTrigger   EventType = "CASCADE_TRIGGER"
	EventIncidentUpdate   EventType = "INCIDENT_UPDATE"
	EventIncidentResolved EventType = "INCIDENT_RESOLVED"
	EventUserAction       EventType = "USER_ACTION"
)

// EventRecord is an operational event. Only the fields relevant to the event
// type are populated; IncidentID/IncidentType back-reference ground truth when
// an event is tied to an incident.
type EventRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Service   string    `json:"service,omitempty"`
	Source    string    `json:"source,omitempty"`
	HostID    string    `json:"host_id,omitempty"`
	Region    string    `json:"region,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Status    string    `json:"status,omitempty"`
	Message   string    `json:"message,omitempty"`

	IncidentID       string       `json:"incident_id,omitempty"`
	IncidentType     IncidentKind `json:"incident_type,omitempty"`
	ParentIncidentID string       `json:"primary_incident_id,omitempty"`

	// Alert / incident lifecycle fields.
	Metric             string   `json:"metric,omitempty"`
	ThresholdValue     int      `json:"threshold_value,omitempty"`
	CurrentValue       int      `json:"current_value,omitempty"`
	UpdateType         string   `json:"update_type,omitempty"`
	AffectedHostsCount int      `json:"affected_hosts_count,omitempty"`
	AffectedServices   []string `json:"affected_services,omitempty"`
	DurationMinutes    int      `json:"duration_minutes,omitempty"`
	ResolutionAction   string   `json:"resolution_action,omitempty"`
	UpstreamService    string   `json:"upstream_service,omitempty"`

	// Deployment fields.
	Version      string `json:"version,omitempty"`
	DeploymentID string `json:"deployment_id,omitempty"`

	// Autoscale fields.
	Action          string `json:"action,omitempty"`
	CurrentReplicas int    `json:"current_replicas,omitempty"`
	NewReplicas     int    `json:"new_replicas,omitempty"`
	Trigger         string `json:"trigger,omitempty"`

	// Config change fields.
	ConfigKey string `json:"config_key,omitempty"`
	OldValue  string `json:"old_value,omitempty"`
	NewValue  string `json:"new_value,omitempty"`
	ChangedBy string `json:"changed_by,omitempty"`

	// Health check fields.
	Checks map[string]string `json:"checks,omitempty"`

	// Restart / user action fields.
	Reason       string `json:"reason,omitempty"`
	RestartCount int    `json:"restart_count,omitempty"`
	User         string `json:"user,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}
