package incident

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/topology"
	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

const (
	// A day has an incident with probability in [0.25, 0.30).
	dayIncidentBaseProb   = 0.25
	dayIncidentProbJitter = 0.05

	// Each downstream dependent is independently pulled into a cascade.
	cascadeFanoutProb = 0.6

	// Cascade onset lags the parent by 1-4 steps; the child's end drifts
	// 0-2 steps past the parent's end.
	cascadeStep          = 15 * time.Minute
	cascadeMaxDelaySteps = 4
	cascadeMaxEndJitter  = 2

	// Primary incidents start during business hours and last whole hours.
	minStartHour     = 8
	maxStartHour     = 20
	minDurationHours = 1
	maxDurationHours = 6
)

// Scheduler decides, per simulated day, whether an incident occurs, picks its
// target, and expands it into a cascade tree over the dependency graph.
// Scheduling never fails: every empty candidate set falls back to a uniformly
// random topology node or skips the cascade.
type Scheduler struct {
	logger        *slog.Logger
	rng           *rand.Rand
	topo          *topology.Topology
	deps          map[string][]string
	sharedService string
}

// NewScheduler constructs a scheduler. deps maps a service to the services
// depending on it; sharedService names the data tier targeted by
// shared-resource incidents.
func NewScheduler(logger *slog.Logger, rng *rand.Rand, topo *topology.Topology, deps map[string][]string, sharedService string) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger:        logger,
		rng:           rng,
		topo:          topo,
		deps:          deps,
		sharedService: sharedService,
	}
}

// ScheduleDay returns the incidents starting on the given day: the primary
// first, then its cascades in generation order. Most days return nil.
func (s *Scheduler) ScheduleDay(day time.Time) []models.Incident {
	dayProb := dayIncidentBaseProb + s.rng.Float64()*dayIncidentProbJitter
	if s.rng.Float64() >= dayProb {
		return nil
	}

	spec := s.pickType()
	targetHost, targetService, targetRegion := s.pickTarget(spec)

	startHour := minStartHour + s.rng.Intn(maxStartHour-minStartHour+1)
	durationHours := minDurationHours + s.rng.Intn(maxDurationHours-minDurationHours+1)
	start := day.Add(time.Duration(startHour) * time.Hour)
	end := start.Add(time.Duration(durationHours) * time.Hour)

	primary := models.Incident{
		ID:               utils.UUID(s.rng),
		Type:             spec.Kind,
		TargetHost:       targetHost,
		TargetService:    targetService,
		StartTime:        start,
		EndTime:          end,
		Severity:         spec.Severity,
		DrivingMetric:    spec.DrivingMetric,
		IsPrimary:        true,
		AffectedHosts:    []string{targetHost},
		AffectedServices: []string{targetService},
	}

	children := s.expandCascade(&primary, spec)

	// Regional incidents degrade the whole region: the affected sets are the
	// region membership, superseding the single-host default and any cascade
	// accumulation. Kept non-empty so the target stays inside its own blast
	// radius even when the region index has no members.
	if spec.Effect == models.EffectRegional {
		if hosts := s.topo.RegionHosts(targetRegion); len(hosts) > 0 {
			primary.AffectedHosts = append([]string(nil), hosts...)
			primary.AffectedServices = s.topo.RegionServices(targetRegion)
		}
	}

	incidents := make([]models.Incident, 0, 1+len(children))
	incidents = append(incidents, primary)
	incidents = append(incidents, children...)

	s.logger.Debug("scheduled incident",
		slog.String("id", primary.ID),
		slog.String("type", string(primary.Type)),
		slog.String("service", primary.TargetService),
		slog.Time("start", primary.StartTime),
		slog.Int("cascades", len(children)))

	return incidents
}

// pickType draws an incident kind using the catalog weights.
func (s *Scheduler) pickType() TypeSpec {
	total := 0.0
	for _, spec := range catalog {
		total += spec.Weight
	}
	x := s.rng.Float64() * total
	for _, spec := range catalog {
		x -= spec.Weight
		if x < 0 {
			return spec
		}
	}
	return catalog[len(catalog)-1]
}

// pickTarget selects the primary target according to the incident kind.
func (s *Scheduler) pickTarget(spec TypeSpec) (hostID, service, region string) {
	switch spec.Effect {
	case models.EffectRegional:
		regions := s.topo.Regions()
		if len(regions) == 0 {
			break
		}
		region = regions[s.rng.Intn(len(regions))]
		hosts := s.topo.RegionHosts(region)
		if len(hosts) == 0 {
			break
		}
		hostID = hosts[s.rng.Intn(len(hosts))]
		if node, ok := s.topo.NodeByHost(hostID); ok {
			return hostID, node.Service, region
		}
	case models.EffectShared:
		hosts := s.topo.ServiceHosts(s.sharedService)
		if len(hosts) == 0 {
			break
		}
		hostID = hosts[s.rng.Intn(len(hosts))]
		if node, ok := s.topo.NodeByHost(hostID); ok {
			return hostID, s.sharedService, node.Region
		}
	}

	node := s.topo.RandomNode(s.rng)
	return node.HostID, node.Service, node.Region
}

// expandCascade spawns dependency-degradation children for downstream
// dependents and folds their hosts/services into the parent's affected sets.
func (s *Scheduler) expandCascade(primary *models.Incident, spec TypeSpec) []models.Incident {
	if s.rng.Float64() >= spec.CascadeProb {
		return nil
	}
	dependents, ok := s.deps[primary.TargetService]
	if !ok || len(dependents) == 0 {
		return nil
	}

	depSpec := TypeOf(models.KindDependencyDegradation)
	children := make([]models.Incident, 0, len(dependents))
	for _, depService := range dependents {
		if s.rng.Float64() >= cascadeFanoutProb {
			continue
		}

		delay := time.Duration(1+s.rng.Intn(cascadeMaxDelaySteps)) * cascadeStep
		endJitter := time.Duration(s.rng.Intn(cascadeMaxEndJitter+1)) * cascadeStep
		childStart := primary.StartTime.Add(delay)
		childEnd := primary.EndTime.Add(endJitter)
		if !childEnd.After(childStart) {
			childEnd = childStart.Add(cascadeStep)
		}

		var childHost string
		if hosts := s.topo.ServiceHosts(depService); len(hosts) > 0 {
			childHost = hosts[s.rng.Intn(len(hosts))]
		} else {
			childHost = s.topo.RandomNode(s.rng).HostID
		}

		child := models.Incident{
			ID:               utils.UUID(s.rng),
			Type:             depSpec.Kind,
			TargetHost:       childHost,
			TargetService:    depService,
			StartTime:        childStart,
			EndTime:          childEnd,
			Severity:         depSpec.Severity,
			DrivingMetric:    depSpec.DrivingMetric,
			IsPrimary:        false,
			ParentID:         primary.ID,
			AffectedHosts:    []string{childHost},
			AffectedServices: []string{depService},
		}
		children = append(children, child)

		primary.ChildIDs = append(primary.ChildIDs, child.ID)
		primary.AffectedHosts = appendUnique(primary.AffectedHosts, childHost)
		primary.AffectedServices = appendUnique(primary.AffectedServices, depService)
	}

	return children
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
