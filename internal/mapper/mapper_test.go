package mapper

import (
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/sink"
)

func writeDataset(t *testing.T) (string, models.Incident) {
	t.Helper()
	dir := t.TempDir()
	out, err := sink.NewFileSink(dir, false, nil)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inc := models.Incident{
		ID:               "inc-1",
		Type:             models.KindDBContention,
		TargetHost:       "db-01",
		TargetService:    "inventory-db",
		StartTime:        day.Add(10 * time.Hour),
		EndTime:          day.Add(12 * time.Hour),
		Severity:         models.SeverityP2,
		IsPrimary:        true,
		AffectedHosts:    []string{"db-01"},
		AffectedServices: []string{"inventory-db"},
	}

	metrics := []models.MetricRecord{
		{Timestamp: day.Add(11 * time.Hour), HostID: "db-01", Service: "inventory-db"},
		{Timestamp: day.Add(9 * time.Hour), HostID: "db-01", Service: "inventory-db"},
		{Timestamp: day.Add(11 * time.Hour), HostID: "web-01", Service: "web-frontend"},
	}
	logs := []models.LogRecord{
		{Timestamp: day.Add(11 * time.Hour), Host: "db-01", Service: "inventory-db", Level: models.LogError},
		{Timestamp: day.Add(13 * time.Hour), Host: "db-01", Service: "inventory-db", Level: models.LogInfo},
	}
	traces := []models.TraceRecord{
		{Timestamp: day.Add(11 * time.Hour), Service: "inventory-db", TraceID: "t1", StatusCode: 500, DurationMs: 900},
		{Timestamp: day.Add(11 * time.Hour), Service: "web-frontend", TraceID: "t2", StatusCode: 200, DurationMs: 50},
	}
	events := []models.EventRecord{
		{Timestamp: day.Add(10 * time.Hour), Type: models.EventAlertTrigger, IncidentID: "inc-1", Service: "inventory-db"},
		{Timestamp: day.Add(11 * time.Hour), Type: models.EventHealthCheck, Service: "inventory-db"},
		{Timestamp: day.Add(11 * time.Hour), Type: models.EventDeployment, Service: "web-frontend"},
		{Timestamp: day.Add(15 * time.Hour), Type: models.EventHealthCheck, Service: "inventory-db"},
	}

	if err := out.WriteSignals(day, metrics, logs, traces, events); err != nil {
		t.Fatalf("WriteSignals: %v", err)
	}

	truth := incident.NewGroundTruth()
	truth.Append(inc)
	cfg := sink.GenerationConfig{
		StartDate:          day,
		DaysGenerated:      1,
		GranularityMinutes: 5,
		Seed:               1,
		TotalHosts:         2,
		Services:           []string{"inventory-db", "web-frontend"},
		Regions:            []string{"dc-east"},
	}
	if err := out.WriteGroundTruth(cfg, truth); err != nil {
		t.Fatalf("WriteGroundTruth: %v", err)
	}
	return dir, inc
}

func TestMapIncident(t *testing.T) {
	dir, inc := writeDataset(t)

	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	mapping, err := m.MapIncident(inc.ID)
	if err != nil {
		t.Fatalf("MapIncident: %v", err)
	}

	if len(mapping.Metrics) != 1 {
		t.Fatalf("mapped %d metrics, want 1", len(mapping.Metrics))
	}
	if mapping.Metrics[0].HostID != "db-01" {
		t.Fatalf("mapped wrong metric host %s", mapping.Metrics[0].HostID)
	}
	if len(mapping.Logs) != 1 {
		t.Fatalf("mapped %d logs, want 1", len(mapping.Logs))
	}
	if len(mapping.Traces) != 1 || mapping.Traces[0].TraceID != "t1" {
		t.Fatalf("mapped wrong traces: %+v", mapping.Traces)
	}
	// The alert is linked by ID, the in-window health check by service.
	if len(mapping.Events) != 2 {
		t.Fatalf("mapped %d events, want 2", len(mapping.Events))
	}
}

func TestMapIncidentUnknown(t *testing.T) {
	dir, _ := writeDataset(t)
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := m.MapIncident("nope"); err == nil {
		t.Fatalf("expected error for unknown incident")
	}
}

func TestDescribeAndSummaries(t *testing.T) {
	dir, inc := writeDataset(t)
	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	mapping, err := m.MapIncident(inc.ID)
	if err != nil {
		t.Fatalf("MapIncident: %v", err)
	}

	desc := mapping.Describe()
	for _, want := range []string{
		"INCIDENT MAPPING: inc-1",
		"Type: DB_CONTENTION",
		"EVENTS: 2 total (1 directly linked)",
		"LOGS: 1 total (1 errors/warnings)",
		"TRACES: 1 total (1 failed)",
		"Average duration: 900.00 ms",
	} {
		if !strings.Contains(desc, want) {
			t.Fatalf("describe missing %q in:\n%s", want, desc)
		}
	}

	list := m.ListText()
	if !strings.Contains(list, "Total Incidents: 1") || !strings.Contains(list, "inc-1") {
		t.Fatalf("list output wrong:\n%s", list)
	}

	summary := m.SummaryText()
	for _, want := range []string{"INCIDENT SUMMARY", "Primary Incidents: 1", "DB_CONTENTION", "Date Range: 2026-03-01 to 2026-03-01"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestOpenMissingCatalog(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}
