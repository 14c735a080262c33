// Package sim drives the day-by-day generation loop: schedule incidents,
// sweep the day at the configured granularity, synthesize all four signal
// kinds per timestep, and flush one file set per day.
package sim

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/incident"
	"github.com/miradorstack/mirador-meltsim/internal/metrics"
	"github.com/miradorstack/mirador-meltsim/internal/models"
	"github.com/miradorstack/mirador-meltsim/internal/report"
	"github.com/miradorstack/mirador-meltsim/internal/sink"
	"github.com/miradorstack/mirador-meltsim/internal/synth"
	"github.com/miradorstack/mirador-meltsim/internal/topology"
	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

// Sink receives generated batches and run metadata.
type Sink interface {
	WriteSignals(day time.Time, metrics []models.MetricRecord, logs []models.LogRecord, traces []models.TraceRecord, events []models.EventRecord) error
	WriteGroundTruth(cfg sink.GenerationConfig, truth *incident.GroundTruth) error
	WriteRootCauseReport(text string) error
}

// Params fixes the simulated time range and resolution of one run.
type Params struct {
	StartDate     time.Time
	Days          int
	Granularity   time.Duration
	Seed          int64
	SharedService string
}

// Runner owns the generation loop. All randomness flows through the single
// seeded source shared with the scheduler, so one seed reproduces the run
// byte for byte.
type Runner struct {
	logger    *slog.Logger
	params    Params
	topo      *topology.Topology
	scheduler *incident.Scheduler

	metricSynth *synth.MetricSynthesizer
	ltSynth     *synth.LogTraceSynthesizer
	eventSynth  *synth.EventSynthesizer

	out      Sink
	dayTimes *utils.LatencyTracker
}

// NewRunner wires the synthesizers around the shared random source.
func NewRunner(logger *slog.Logger, rng *rand.Rand, params Params, topo *topology.Topology, scheduler *incident.Scheduler, out Sink) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:      logger,
		params:      params,
		topo:        topo,
		scheduler:   scheduler,
		metricSynth: synth.NewMetricSynthesizer(rng, params.SharedService),
		ltSynth:     synth.NewLogTraceSynthesizer(rng),
		eventSynth:  synth.NewEventSynthesizer(rng, params.Granularity),
		out:         out,
		dayTimes:    utils.NewLatencyTracker(64),
	}
}

// Run generates every simulated day, then writes the incident catalog and
// root cause report. It stops between days when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	truth := incident.NewGroundTruth()
	intervalsPerDay := int(24 * time.Hour / r.params.Granularity)

	r.logger.Info("starting generation",
		slog.Time("start_date", r.params.StartDate),
		slog.Int("days", r.params.Days),
		slog.Duration("granularity", r.params.Granularity),
		slog.Int("hosts", r.topo.Size()),
		slog.Int("intervals_per_day", intervalsPerDay))

	var carryOver []models.Incident
	for offset := 0; offset < r.params.Days; offset++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		day := r.params.StartDate.AddDate(0, 0, offset)
		started := time.Now()

		scheduled := r.scheduler.ScheduleDay(day)
		truth.Append(scheduled...)
		for _, inc := range scheduled {
			metrics.CountIncident(string(inc.Type), inc.IsPrimary)
		}

		// Incidents can cross midnight; carried ones stay visible so their
		// degradation and resolution events land on the day they belong to.
		visible := make([]models.Incident, 0, len(carryOver)+len(scheduled))
		visible = append(visible, carryOver...)
		visible = append(visible, scheduled...)

		dayMetrics := make([]models.MetricRecord, 0, intervalsPerDay*r.topo.Size())
		dayLogs := make([]models.LogRecord, 0, intervalsPerDay*r.topo.Size())
		dayTraces := make([]models.TraceRecord, 0, intervalsPerDay*r.topo.Size())
		var dayEvents []models.EventRecord

		for i := 0; i < intervalsPerDay; i++ {
			ts := day.Add(time.Duration(i) * r.params.Granularity)
			active := incident.ActiveAt(ts, visible)

			dayMetrics = append(dayMetrics, r.metricSynth.Emit(ts, active, r.topo)...)
			logs, traces := r.ltSynth.Emit(ts, active, r.topo)
			dayLogs = append(dayLogs, logs...)
			dayTraces = append(dayTraces, traces...)
			dayEvents = append(dayEvents, r.eventSynth.Emit(ts, visible, active, r.topo)...)
		}

		if err := r.out.WriteSignals(day, dayMetrics, dayLogs, dayTraces, dayEvents); err != nil {
			return err
		}

		metrics.CountRecords(metrics.SignalMetrics, len(dayMetrics))
		metrics.CountRecords(metrics.SignalLogs, len(dayLogs))
		metrics.CountRecords(metrics.SignalTraces, len(dayTraces))
		metrics.CountRecords(metrics.SignalEvents, len(dayEvents))

		elapsed := time.Since(started)
		metrics.ObserveDayGeneration(elapsed)
		r.dayTimes.Observe(elapsed)

		carryOver = r.carryForward(visible, day)

		primaries := 0
		for _, inc := range scheduled {
			if inc.IsPrimary {
				primaries++
			}
		}
		r.logger.Info("generated day",
			slog.String("date", day.Format("2006-01-02")),
			slog.Int("primary_incidents", primaries),
			slog.Int("cascading_incidents", len(scheduled)-primaries),
			slog.Int("carried_over", len(carryOver)),
			slog.Int("events", len(dayEvents)),
			slog.Duration("elapsed", elapsed),
			slog.Duration("p95_day", r.dayTimes.Percentile(95)))
	}

	cfg := sink.GenerationConfig{
		StartDate:          r.params.StartDate,
		DaysGenerated:      r.params.Days,
		GranularityMinutes: int(r.params.Granularity.Minutes()),
		Seed:               r.params.Seed,
		TotalHosts:         r.topo.Size(),
		Services:           r.topo.Services(),
		Regions:            r.topo.Regions(),
	}
	if err := r.out.WriteGroundTruth(cfg, truth); err != nil {
		return err
	}
	if err := r.out.WriteRootCauseReport(report.Render(truth)); err != nil {
		return err
	}

	summary := truth.Summarize()
	r.logger.Info("generation complete",
		slog.Int("total_incidents", summary.Total),
		slog.Int("primary_incidents", summary.Primary),
		slog.Int("cascading_incidents", summary.Cascading))
	return nil
}

// carryForward keeps incidents whose resolution has not been observed by the
// day's final timestep, so the next day still sees them.
func (r *Runner) carryForward(visible []models.Incident, day time.Time) []models.Incident {
	lastTs := day.Add(24*time.Hour - r.params.Granularity)
	var carried []models.Incident
	for _, inc := range visible {
		if inc.EndTime.After(lastTs) {
			carried = append(carried, inc)
		}
	}
	return carried
}
