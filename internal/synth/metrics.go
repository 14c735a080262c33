// Package synth generates the per-timestep signal records. All synthesizers
// consult the same active-incident view, so metrics, logs, traces, and events
// agree on what is broken, where, and how badly at every timestamp.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/topology"
)

const (
	// Partial outage: only this share of nominally-affected hosts degrade.
	partialOutageProb = 0.7

	// Severity blends back toward baseline over the last 30 minutes.
	recoveryWindowHours = 0.5

	baselineErrorRate = 0.1

	maintenanceStartHour = 2
	maintenanceEndHour   = 5
	maintenanceFactor    = 0.3
)

// MetricSynthesizer produces one metric record per topology node and
// timestep, applying the owning incident's effect model where one resolves.
type MetricSynthesizer struct {
	rng      *rand.Rand
	dataTier string
}

// NewMetricSynthesizer constructs a metric synthesizer. dataTier names the
// service that absorbs extra CPU load during database contention.
func NewMetricSynthesizer(rng *rand.Rand, dataTier string) *MetricSynthesizer {
	return &MetricSynthesizer{rng: rng, dataTier: dataTier}
}

// Emit generates metric records for every node at ts.
func (s *MetricSynthesizer) Emit(ts time.Time, active []models.Incident, topo *topology.Topology) []models.MetricRecord {
	season := seasonality(ts)
	maint := maintenanceFactorAt(ts)

	records := make([]models.MetricRecord, 0, topo.Size())
	for _, node := range topo.Nodes() {
		cpu := s.gauss(30, 5) * season * maint
		mem := s.gauss(40, 2)
		latency := s.gauss(20, 5)
		errorRate := baselineErrorRate
		packetLoss := 0.0
		dbConn := s.gauss(20, 5)
		pool := s.gauss(30, 10)

		if inc, ok := incident.Resolve(node.HostID, active); ok {
			elapsed := ts.Sub(inc.StartTime).Hours()
			toEnd := inc.EndTime.Sub(ts).Hours()

			if s.rng.Float64() < partialOutageProb {
				switch inc.Type {
				case models.KindMemoryLeak:
					mem += 20 * elapsed
					latency += 10 * elapsed
					if mem > 90 {
						errorRate = 5.0
						cpu += 20 // GC overhead
					}
				case models.KindDBContention:
					latency *= 5
					errorRate = 2.0
					dbConn = math.Min(100, dbConn*3)
					if node.Service == s.dataTier {
						cpu += 30
					}
				case models.KindCPUSaturation:
					cpu = 95 + s.rng.Float64()*5
					latency += 50
					if cpu > 98 {
						errorRate = 3.0
					}
				case models.KindNetworkPacketLoss:
					packetLoss = s.gauss(15, 5)
					latency += packetLoss * 10
					errorRate = packetLoss / 10
				case models.KindNetworkPartition:
					packetLoss = s.gauss(50, 10)
					latency *= 10
					errorRate = 10.0
					cpu += 20 // retry overhead
				case models.KindDependencyDegradation:
					latency += s.gauss(200, 50)
					errorRate = 1.5
					if latency > 500 {
						errorRate = 5.0 // timeouts
					}
				case models.KindCascadingFailure:
					cpu += 40
					latency += 100
					errorRate = 4.0
					mem += 20
				case models.KindConfigMismatch:
					// Intermittent: ~30% of evaluations fail.
					if s.rng.Float64() < 0.3 {
						errorRate = 3.0
						latency += 100
					}
				case models.KindResourceExhaustion:
					pool = 95 + s.rng.Float64()*5
					latency += 150
					errorRate = 3.0
					if pool > 98 {
						errorRate = 8.0
					}
				}
			}

			if toEnd < recoveryWindowHours {
				factor := toEnd / recoveryWindowHours
				errorRate *= factor
				latency *= 0.5 + 0.5*factor
				cpu *= 0.5 + 0.5*factor
			}
		}

		requests := int(float64(100+s.rng.Intn(401)) * season * maint)

		records = append(records, models.MetricRecord{
			Timestamp: ts,
			HostID:    node.HostID,
			Service:   node.Service,
			Region:    node.Region,
			Provider:  node.Provider,
			Metrics: models.MetricValues{
				CPUUtil:          round2(clampPct(cpu)),
				MemUtil:          round2(clampPct(mem)),
				LatencyMs:        round2(latency),
				ErrorRate:        round2(errorRate),
				RequestCount:     requests,
				PacketLossPct:    round2(clampPct(packetLoss)),
				DBConnPoolUtil:   round2(clampPct(dbConn)),
				ResourcePoolUtil: round2(clampPct(pool)),
			},
			Metadata: node.Metadata,
		})
	}
	return records
}

func (s *MetricSynthesizer) gauss(mean, stddev float64) float64 {
	return s.rng.NormFloat64()*stddev + mean
}

// seasonality maps the hour of day onto a 0.5-1.5 multiplier peaking during
// business hours.
func seasonality(ts time.Time) float64 {
	hour := float64(ts.Hour())
	return 1.0 + 0.5*math.Sin((hour-9)*math.Pi/12)
}

func maintenanceFactorAt(ts time.Time) float64 {
	if ts.Hour() >= maintenanceStartHour && ts.Hour() < maintenanceEndHour {
		return maintenanceFactor
	}
	return 1.0
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
