package synth

import (
	"math/rand"
	"testing"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/models"
)

func sweepDay(t *testing.T, seed int64, visible []models.Incident, day time.Time, granularity time.Duration) []models.EventRecord {
	t.Helper()
	topo := testTopology(t, []string{"web-frontend", "auth-service", "inventory-db"}, 2)
	synth := NewEventSynthesizer(rand.New(rand.NewSource(seed)), granularity)

	var events []models.EventRecord
	for ts := day; ts.Before(day.AddDate(0, 0, 1)); ts = ts.Add(granularity) {
		active := incident.ActiveAt(ts, visible)
		events = append(events, synth.Emit(ts, visible, active, topo)...)
	}
	return events
}

func TestLifecycleEventsFireOnce(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	primary := models.Incident{
		ID:               "primary-1",
		Type:             models.KindDBContention,
		TargetHost:       "db-host",
		TargetService:    "inventory-db",
		StartTime:        day.Add(10 * time.Hour),
		EndTime:          day.Add(12 * time.Hour),
		Severity:         models.SeverityP2,
		DrivingMetric:    "db_connection_pool",
		IsPrimary:        true,
		AffectedHosts:    []string{"db-host", "auth-host"},
		AffectedServices: []string{"inventory-db", "auth-service"},
		ChildIDs:         []string{"cascade-1"},
	}
	child := models.Incident{
		ID:               "cascade-1",
		Type:             models.KindDependencyDegradation,
		TargetHost:       "auth-host",
		TargetService:    "auth-service",
		StartTime:        day.Add(10*time.Hour + 30*time.Minute),
		EndTime:          day.Add(12*time.Hour + 15*time.Minute),
		Severity:         models.SeverityP2,
		ParentID:         "primary-1",
		AffectedHosts:    []string{"auth-host"},
		AffectedServices: []string{"auth-service"},
	}

	for seed := int64(1); seed <= 5; seed++ {
		events := sweepDay(t, seed, []models.Incident{primary, child}, day, 5*time.Minute)

		counts := make(map[models.EventType]int)
		for _, e := range events {
			switch e.Type {
			case models.EventAlertTrigger, models.EventCascadeTrigger, models.EventIncidentUpdate, models.EventIncidentResolved:
				counts[e.Type]++
			}
		}

		if counts[models.EventAlertTrigger] != 1 {
			t.Fatalf("seed %d: %d alert triggers, want 1", seed, counts[models.EventAlertTrigger])
		}
		if counts[models.EventCascadeTrigger] != 1 {
			t.Fatalf("seed %d: %d cascade triggers, want 1", seed, counts[models.EventCascadeTrigger])
		}
		if counts[models.EventIncidentResolved] != 2 {
			t.Fatalf("seed %d: %d resolutions, want 2", seed, counts[models.EventIncidentResolved])
		}
		// Updates land at 30, 60, and 90 minutes in; the window closes at the end.
		if counts[models.EventIncidentUpdate] != 3 {
			t.Fatalf("seed %d: %d incident updates, want 3", seed, counts[models.EventIncidentUpdate])
		}

		for _, e := range events {
			switch e.Type {
			case models.EventAlertTrigger:
				if e.IncidentID != "primary-1" || e.Severity != "HIGH" {
					t.Fatalf("seed %d: malformed alert trigger %+v", seed, e)
				}
				if e.Metric != "db_connection_pool" {
					t.Fatalf("seed %d: alert metric %s", seed, e.Metric)
				}
			case models.EventCascadeTrigger:
				if e.IncidentID != "cascade-1" || e.ParentIncidentID != "primary-1" {
					t.Fatalf("seed %d: cascade trigger not linked: %+v", seed, e)
				}
			case models.EventIncidentResolved:
				if e.IncidentID == "primary-1" && e.DurationMinutes != 120 {
					t.Fatalf("seed %d: primary resolution after %d minutes", seed, e.DurationMinutes)
				}
			}
		}
	}
}

func TestLifecycleRespectsGranularity(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// Start offset is not aligned to the hourly sweep, so the trigger must
	// fire on the first timestep at or after it.
	inc := models.Incident{
		ID:               "primary-2",
		Type:             models.KindCPUSaturation,
		TargetHost:       "h1",
		TargetService:    "web-frontend",
		StartTime:        day.Add(9*time.Hour + 20*time.Minute),
		EndTime:          day.Add(13*time.Hour + 20*time.Minute),
		Severity:         models.SeverityP1,
		DrivingMetric:    "cpu_utilization",
		IsPrimary:        true,
		AffectedHosts:    []string{"h1"},
		AffectedServices: []string{"web-frontend"},
	}

	events := sweepDay(t, 9, []models.Incident{inc}, day, time.Hour)

	var alerts, resolutions []models.EventRecord
	for _, e := range events {
		switch e.Type {
		case models.EventAlertTrigger:
			alerts = append(alerts, e)
		case models.EventIncidentResolved:
			resolutions = append(resolutions, e)
		}
	}
	if len(alerts) != 1 {
		t.Fatalf("%d alerts with hourly sweep, want 1", len(alerts))
	}
	if got := alerts[0].Timestamp; !got.Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("alert fired at %s", got)
	}
	if alerts[0].Severity != "CRITICAL" {
		t.Fatalf("P1 alert labeled %s", alerts[0].Severity)
	}
	if len(resolutions) != 1 {
		t.Fatalf("%d resolutions with hourly sweep, want 1", len(resolutions))
	}
	if got := resolutions[0].Timestamp; !got.Equal(day.Add(14 * time.Hour)) {
		t.Fatalf("resolution fired at %s", got)
	}
}

func TestMaintenanceWindowEvents(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	events := sweepDay(t, 4, nil, day, 5*time.Minute)

	var started, completed int
	for _, e := range events {
		if e.Type != models.EventMaintenance {
			continue
		}
		switch e.Status {
		case "STARTED":
			started++
			if len(e.AffectedServices) == 0 {
				t.Fatalf("maintenance start without affected services")
			}
		case "COMPLETED":
			completed++
		}
	}
	if started != 1 || completed != 1 {
		t.Fatalf("maintenance events %d/%d, want 1/1", started, completed)
	}
}

func TestEventBackReferences(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	primary := models.Incident{
		ID:               "primary-3",
		Type:             models.KindMemoryLeak,
		TargetHost:       "h1",
		TargetService:    "web-frontend",
		StartTime:        day.Add(8 * time.Hour),
		EndTime:          day.Add(14 * time.Hour),
		Severity:         models.SeverityP3,
		DrivingMetric:    "memory_usage",
		IsPrimary:        true,
		AffectedHosts:    []string{"h1"},
		AffectedServices: []string{"web-frontend"},
	}

	for seed := int64(1); seed <= 10; seed++ {
		events := sweepDay(t, seed, []models.Incident{primary}, day, 5*time.Minute)
		for _, e := range events {
			if e.IncidentID != "" && e.IncidentID != "primary-3" {
				t.Fatalf("seed %d: event references unknown incident %s", seed, e.IncidentID)
			}
		}
	}
}

func TestSeverityLabel(t *testing.T) {
	if severityLabel(models.SeverityP1) != "CRITICAL" {
		t.Fatalf("P1 label wrong")
	}
	if severityLabel(models.SeverityP2) != "HIGH" {
		t.Fatalf("P2 label wrong")
	}
	if severityLabel(models.SeverityP3) != "MEDIUM" {
		t.Fatalf("P3 label wrong")
	}
}
