// Package mapper joins the incident catalog back to the generated signal
// files: given an incident ID it collects every metric, log, trace, and event
// that falls inside the incident's window and blast radius.
package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/sink"
	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

// Mapper reads a generated data set and resolves incident cross-references.
type Mapper struct {
	baseDir string
	catalog sink.CatalogDocument
	byID    map[string]models.Incident
}

// Open loads the incident catalog under baseDir.
func Open(baseDir string) (*Mapper, error) {
	path := filepath.Join(baseDir, "metadata", "incident_catalog.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.NewAppError("mapper.open", "reading incident catalog", err)
	}

	var catalog sink.CatalogDocument
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, utils.NewAppError("mapper.open", "parsing incident catalog", err)
	}

	byID := make(map[string]models.Incident, len(catalog.Incidents))
	for _, inc := range catalog.Incidents {
		byID[inc.ID] = inc
	}
	return &Mapper{baseDir: baseDir, catalog: catalog, byID: byID}, nil
}

// Catalog returns the loaded catalog document.
func (m *Mapper) Catalog() sink.CatalogDocument { return m.catalog }

// Incidents returns every cataloged incident in scheduling order.
func (m *Mapper) Incidents() []models.Incident { return m.catalog.Incidents }

// Mapping ties one incident to all signal records attributable to it.
type Mapping struct {
	Incident models.Incident
	Events   []models.EventRecord
	Metrics  []models.MetricRecord
	Logs     []models.LogRecord
	Traces   []models.TraceRecord
}

// MapIncident collects the records related to the given incident. Events
// match by back-reference or by window plus affected service; metrics and
// logs additionally require an affected host; traces match by service.
func (m *Mapper) MapIncident(id string) (*Mapping, error) {
	inc, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("incident %s not found", id)
	}

	mapping := &Mapping{Incident: inc}

	affectedHosts := make(map[string]bool, len(inc.AffectedHosts))
	for _, h := range inc.AffectedHosts {
		affectedHosts[h] = true
	}
	affectedServices := make(map[string]bool, len(inc.AffectedServices))
	for _, s := range inc.AffectedServices {
		affectedServices[s] = true
	}
	inWindow := func(ts time.Time) bool {
		return !ts.Before(inc.StartTime) && !ts.After(inc.EndTime)
	}

	// Events can land on any day the incident spans.
	for day := inc.StartTime.Truncate(24 * time.Hour); !day.After(inc.EndTime); day = day.AddDate(0, 0, 1) {
		var events []models.EventRecord
		if err := m.readDaily(day, "events", &events); err != nil {
			return nil, err
		}
		for _, e := range events {
			if e.IncidentID == id || (inWindow(e.Timestamp) && affectedServices[e.Service]) {
				mapping.Events = append(mapping.Events, e)
			}
		}
	}

	startDay := inc.StartTime.Truncate(24 * time.Hour)

	var metrics []models.MetricRecord
	if err := m.readDaily(startDay, "metrics", &metrics); err != nil {
		return nil, err
	}
	for _, rec := range metrics {
		if inWindow(rec.Timestamp) && affectedHosts[rec.HostID] && affectedServices[rec.Service] {
			mapping.Metrics = append(mapping.Metrics, rec)
		}
	}

	var logs []models.LogRecord
	if err := m.readDaily(startDay, "logs", &logs); err != nil {
		return nil, err
	}
	for _, rec := range logs {
		if inWindow(rec.Timestamp) && affectedHosts[rec.Host] && affectedServices[rec.Service] {
			mapping.Logs = append(mapping.Logs, rec)
		}
	}

	var traces []models.TraceRecord
	if err := m.readDaily(startDay, "traces", &traces); err != nil {
		return nil, err
	}
	for _, rec := range traces {
		if inWindow(rec.Timestamp) && affectedServices[rec.Service] {
			mapping.Traces = append(mapping.Traces, rec)
		}
	}

	return mapping, nil
}

// readDaily loads one day's signal file into out. A missing file is not an
// error: incidents can span days the run never generated.
func (m *Mapper) readDaily(day time.Time, kind string, out any) error {
	path := filepath.Join(m.baseDir, kind, day.Format("2006-01"),
		fmt.Sprintf("%s_%s.json", kind, day.Format("2006-01-02")))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return utils.NewAppError("mapper.read", "reading "+kind+" file", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return utils.NewAppError("mapper.read", "parsing "+kind+" file", err)
	}
	return nil
}
