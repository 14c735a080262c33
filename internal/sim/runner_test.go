package sim

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/sink"
	"github.com/miradorstack/mirador-meltsim/internal/topology"
)

type captureSink struct {
	days    []time.Time
	metrics [][]models.MetricRecord
	logs    [][]models.LogRecord
	traces  [][]models.TraceRecord
	events  [][]models.EventRecord

	cfg    sink.GenerationConfig
	truth  *incident.GroundTruth
	report string
}

func (c *captureSink) WriteSignals(day time.Time, metrics []models.MetricRecord, logs []models.LogRecord, traces []models.TraceRecord, events []models.EventRecord) error {
	c.days = append(c.days, day)
	c.metrics = append(c.metrics, metrics)
	c.logs = append(c.logs, logs)
	c.traces = append(c.traces, traces)
	c.events = append(c.events, events)
	return nil
}

func (c *captureSink) WriteGroundTruth(cfg sink.GenerationConfig, truth *incident.GroundTruth) error {
	c.cfg = cfg
	c.truth = truth
	return nil
}

func (c *captureSink) WriteRootCauseReport(text string) error {
	c.report = text
	return nil
}

func runCapture(t *testing.T, seed int64, days int) *captureSink {
	t.Helper()

	provider, err := topology.ProviderFor("onpremise")
	if err != nil {
		t.Fatalf("ProviderFor: %v", err)
	}
	rng := rand.New(rand.NewSource(seed))
	topo, err := topology.Build(rng, []string{"web-frontend", "inventory-db"}, 2, []topology.Provider{provider})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	deps := map[string][]string{"web-frontend": {"inventory-db"}}
	scheduler := incident.NewScheduler(nil, rng, topo, deps, "inventory-db")

	out := &captureSink{}
	runner := NewRunner(nil, rng, Params{
		StartDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Days:          days,
		Granularity:   time.Hour,
		Seed:          seed,
		SharedService: "inventory-db",
	}, topo, scheduler, out)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out
}

func TestRunnerProducesEveryDay(t *testing.T) {
	out := runCapture(t, 21, 5)

	if len(out.days) != 5 {
		t.Fatalf("generated %d days, want 5", len(out.days))
	}
	for i, day := range out.days {
		want := time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC)
		if !day.Equal(want) {
			t.Fatalf("day %d is %s, want %s", i, day, want)
		}
		// 24 hourly intervals times 4 hosts.
		if len(out.metrics[i]) != 24*4 {
			t.Fatalf("day %d has %d metric records", i, len(out.metrics[i]))
		}
		if len(out.logs[i]) != 24*4 || len(out.traces[i]) != 24*4 {
			t.Fatalf("day %d has %d logs / %d traces", i, len(out.logs[i]), len(out.traces[i]))
		}
	}

	if out.truth == nil {
		t.Fatalf("ground truth never written")
	}
	if out.report == "" {
		t.Fatalf("root cause report never written")
	}
	if out.cfg.Seed != 21 || out.cfg.DaysGenerated != 5 || out.cfg.TotalHosts != 4 {
		t.Fatalf("generation config wrong: %+v", out.cfg)
	}
}

func TestRunnerDeterministic(t *testing.T) {
	first := runCapture(t, 33, 20)
	second := runCapture(t, 33, 20)

	if !reflect.DeepEqual(first.metrics, second.metrics) {
		t.Fatalf("metric streams diverge for the same seed")
	}
	if !reflect.DeepEqual(first.events, second.events) {
		t.Fatalf("event streams diverge for the same seed")
	}
	if !reflect.DeepEqual(first.truth.Incidents(), second.truth.Incidents()) {
		t.Fatalf("ground truth diverges for the same seed")
	}
	if first.report != second.report {
		t.Fatalf("reports diverge for the same seed")
	}
}

func TestRunnerLifecycleCompleteness(t *testing.T) {
	out := runCapture(t, 77, 120)

	incidents := out.truth.Incidents()
	if len(incidents) == 0 {
		t.Skip("seed scheduled no incidents in 120 days")
	}

	resolved := make(map[string]bool)
	alerted := make(map[string]bool)
	for _, dayEvents := range out.events {
		for _, e := range dayEvents {
			switch e.Type {
			case models.EventIncidentResolved:
				if resolved[e.IncidentID] {
					t.Fatalf("incident %s resolved twice", e.IncidentID)
				}
				resolved[e.IncidentID] = true
			case models.EventAlertTrigger, models.EventCascadeTrigger:
				if alerted[e.IncidentID] {
					t.Fatalf("incident %s triggered twice", e.IncidentID)
				}
				alerted[e.IncidentID] = true
			}
		}
	}

	// Resolution fires on the first timestep at or after the end time, so an
	// incident is guaranteed a resolution event only if it ends by the last
	// timestep the run generates. Later stragglers may remain open.
	lastTs := out.days[len(out.days)-1].Add(24*time.Hour - time.Hour)
	for _, inc := range incidents {
		if !alerted[inc.ID] {
			t.Fatalf("incident %s never triggered an alert", inc.ID)
		}
		if !inc.EndTime.After(lastTs) && !resolved[inc.ID] {
			t.Fatalf("incident %s ended inside the run but never resolved", inc.ID)
		}
	}
}

func TestRunnerHonorsCancellation(t *testing.T) {
	provider, err := topology.ProviderFor("onpremise")
	if err != nil {
		t.Fatalf("ProviderFor: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	topo, err := topology.Build(rng, []string{"web-frontend"}, 1, []topology.Provider{provider})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	scheduler := incident.NewScheduler(nil, rng, topo, nil, "")

	out := &captureSink{}
	runner := NewRunner(nil, rng, Params{
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Days:        10,
		Granularity: time.Hour,
		Seed:        1,
	}, topo, scheduler, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx); err == nil {
		t.Fatalf("expected context error")
	}
	if len(out.days) != 0 {
		t.Fatalf("cancelled run still wrote %d days", len(out.days))
	}
}
