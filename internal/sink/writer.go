// Package sink persists generated signal batches and run metadata as JSON
// artifacts on disk, laid out for date-partitioned replay.
package sink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

var signalKinds = []string{"metrics", "logs", "traces", "events"}

// GenerationConfig is the run configuration echoed into the incident catalog
// so consumers can interpret the artifacts without the original config file.
type GenerationConfig struct {
	StartDate          time.Time `json:"start_date"`
	DaysGenerated      int       `json:"days_generated"`
	GranularityMinutes int       `json:"granularity_minutes"`
	Seed               int64     `json:"seed"`
	TotalHosts         int       `json:"total_hosts"`
	Services           []string  `json:"services"`
	Regions            []string  `json:"regions"`
}

// CatalogDocument is the incident_catalog.json layout.
type CatalogDocument struct {
	GenerationConfig GenerationConfig  `json:"generation_config"`
	Incidents        []models.Incident `json:"incidents"`
	Summary          incident.Summary  `json:"summary"`
}

// FileSink writes one JSON file per signal kind and day under baseDir:
// <kind>/<YYYY-MM>/<kind>_<YYYY-MM-DD>.json, plus metadata/ artifacts.
type FileSink struct {
	baseDir string
	logger  *slog.Logger
}

// NewFileSink prepares the output tree. When clean is set, any existing
// baseDir is removed first so a rerun never mixes artifacts from two runs.
func NewFileSink(baseDir string, clean bool, logger *slog.Logger) (*FileSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clean {
		if err := os.RemoveAll(baseDir); err != nil {
			return nil, utils.NewAppError("sink.init", "cleaning output directory", err)
		}
	}
	for _, kind := range signalKinds {
		if err := os.MkdirAll(filepath.Join(baseDir, kind), 0o755); err != nil {
			return nil, utils.NewAppError("sink.init", "creating signal directory", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(baseDir, "metadata"), 0o755); err != nil {
		return nil, utils.NewAppError("sink.init", "creating metadata directory", err)
	}
	return &FileSink{baseDir: baseDir, logger: logger}, nil
}

// WriteSignals persists one day of generated data, one file per signal kind.
func (f *FileSink) WriteSignals(day time.Time, metrics []models.MetricRecord, logs []models.LogRecord, traces []models.TraceRecord, events []models.EventRecord) error {
	if err := f.writeDaily(day, "metrics", metrics); err != nil {
		return err
	}
	if err := f.writeDaily(day, "logs", logs); err != nil {
		return err
	}
	if err := f.writeDaily(day, "traces", traces); err != nil {
		return err
	}
	return f.writeDaily(day, "events", events)
}

func (f *FileSink) writeDaily(day time.Time, kind string, batch any) error {
	month := day.Format("2006-01")
	dir := filepath.Join(f.baseDir, kind, month)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return utils.NewAppError("sink.write", "creating month directory", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", kind, day.Format("2006-01-02")))
	data, err := json.Marshal(batch)
	if err != nil {
		return utils.NewAppError("sink.write", "encoding "+kind+" batch", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return utils.NewAppError("sink.write", "writing "+kind+" file", err)
	}

	f.logger.Debug("wrote signal file", slog.String("path", path))
	return nil
}

// WriteGroundTruth persists the incident catalog with its run configuration
// and summary to metadata/incident_catalog.json.
func (f *FileSink) WriteGroundTruth(cfg GenerationConfig, truth *incident.GroundTruth) error {
	doc := CatalogDocument{
		GenerationConfig: cfg,
		Incidents:        truth.Incidents(),
		Summary:          truth.Summarize(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return utils.NewAppError("sink.catalog", "encoding incident catalog", err)
	}
	path := filepath.Join(f.baseDir, "metadata", "incident_catalog.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return utils.NewAppError("sink.catalog", "writing incident catalog", err)
	}
	f.logger.Info("wrote incident catalog", slog.String("path", path), slog.Int("incidents", truth.Len()))
	return nil
}

// WriteRootCauseReport persists the human-readable RCA verification report
// to metadata/root_cause.txt.
func (f *FileSink) WriteRootCauseReport(text string) error {
	path := filepath.Join(f.baseDir, "metadata", "root_cause.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return utils.NewAppError("sink.report", "writing root cause report", err)
	}
	f.logger.Info("wrote root cause report", slog.String("path", path))
	return nil
}

// BaseDir returns the sink's output root.
func (f *FileSink) BaseDir() string { return f.baseDir }
