package synth

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/topology"
	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

const degradationWarnProb = 0.1

// LogTraceSynthesizer emits one span and one correlated log line per node and
// timestep. Log and span share the trace ID so consumers can join them.
type LogTraceSynthesizer struct {
	rng *rand.Rand
}

// NewLogTraceSynthesizer constructs a log/trace synthesizer.
func NewLogTraceSynthesizer(rng *rand.Rand) *LogTraceSynthesizer {
	return &LogTraceSynthesizer{rng: rng}
}

// Emit generates logs and traces for every node at ts.
func (s *LogTraceSynthesizer) Emit(ts time.Time, active []models.Incident, topo *topology.Topology) ([]models.LogRecord, []models.TraceRecord) {
	logs := make([]models.LogRecord, 0, topo.Size())
	traces := make([]models.TraceRecord, 0, topo.Size())

	for _, node := range topo.Nodes() {
		traceID := utils.RandHex(s.rng, 32)
		spanID := utils.RandHex(s.rng, 16)

		duration := s.rng.NormFloat64()*10 + 50
		status := 200
		level := models.LogInfo
		message := fmt.Sprintf("Processed request %s", traceID)

		inc, affected := incident.Resolve(node.HostID, active)
		if affected {
			if s.rng.Float64() < failureRate(inc.Type) {
				status = 500
				if inc.Type == models.KindDependencyDegradation {
					duration = float64(1000 + s.rng.Intn(2001))
				} else {
					duration = float64(500 + s.rng.Intn(1501))
				}
				level = models.LogError
				message = errorMessage(inc.Type, inc.TargetService)
			} else if s.rng.Float64() < degradationWarnProb {
				level = models.LogWarning
				message = fmt.Sprintf("Performance degradation detected: %s", inc.Type)
			}
		}

		attrs := map[string]string{
			"http.method": "GET",
			"host.name":   node.HostID,
		}
		for k, v := range node.Metadata {
			attrs["cloud."+k] = v
		}

		traces = append(traces, models.TraceRecord{
			TraceID:    traceID,
			SpanID:     spanID,
			Timestamp:  ts,
			Service:    node.Service,
			Operation:  "GET /api/v1/resource",
			DurationMs: round2(duration),
			StatusCode: status,
			Provider:   node.Provider,
			Region:     node.Region,
			Attributes: attrs,
		})

		logs = append(logs, models.LogRecord{
			Timestamp: ts,
			Level:     level,
			Service:   node.Service,
			Host:      node.HostID,
			Provider:  node.Provider,
			Region:    node.Region,
			TraceID:   traceID,
			Message:   message,
			Metadata:  node.Metadata,
		})
	}
	return logs, traces
}

// failureRate returns the per-request failure probability while degraded.
func failureRate(kind models.IncidentKind) float64 {
	switch kind {
	case models.KindNetworkPartition, models.KindCascadingFailure:
		return 0.6
	case models.KindResourceExhaustion, models.KindDBContention:
		return 0.5
	default:
		return 0.3
	}
}

// errorMessage returns the exception line typical of the incident kind.
func errorMessage(kind models.IncidentKind, targetService string) string {
	switch kind {
	case models.KindDBContention:
		return "ConnectionPoolTimeoutException: Unable to acquire connection from pool"
	case models.KindMemoryLeak:
		return "java.lang.OutOfMemoryError: Java heap space"
	case models.KindNetworkPartition:
		return "NetworkException: Connection timeout to upstream service"
	case models.KindDependencyDegradation:
		return fmt.Sprintf("UpstreamTimeoutException: Service %s did not respond", targetService)
	case models.KindCascadingFailure:
		return "CascadingFailureException: Multiple downstream services unavailable"
	case models.KindResourceExhaustion:
		return "ResourceExhaustedException: Shared resource pool exhausted"
	case models.KindConfigMismatch:
		return "ConfigurationError: Service configuration mismatch detected"
	case models.KindCPUSaturation:
		return "CpuSaturationException: CPU utilization exceeded threshold"
	default:
		return "Internal Server Error: Timeout waiting for upstream"
	}
}
