package synth

import (
	"math/rand"
	"testing"
	"time"

	"github.com/miradorstack/mirador-meltsim/internal/models"
)

func TestLogTraceCorrelation(t *testing.T) {
	topo := testTopology(t, []string{"web-frontend", "auth-service"}, 2)
	synth := NewLogTraceSynthesizer(rand.New(rand.NewSource(1)))
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	logs, traces := synth.Emit(ts, nil, topo)
	if len(logs) != topo.Size() || len(traces) != topo.Size() {
		t.Fatalf("expected %d logs and traces, got %d/%d", topo.Size(), len(logs), len(traces))
	}

	for i := range logs {
		if logs[i].TraceID != traces[i].TraceID {
			t.Fatalf("log %d not correlated with its trace", i)
		}
		if len(traces[i].TraceID) != 32 || len(traces[i].SpanID) != 16 {
			t.Fatalf("malformed trace identifiers %s/%s", traces[i].TraceID, traces[i].SpanID)
		}
		if logs[i].Host != traces[i].Attributes["host.name"] {
			t.Fatalf("trace attributes disagree with log host")
		}
	}
}

func TestLogTraceHealthyBaseline(t *testing.T) {
	topo := testTopology(t, []string{"web-frontend"}, 3)
	synth := NewLogTraceSynthesizer(rand.New(rand.NewSource(2)))
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		logs, traces := synth.Emit(ts, nil, topo)
		for j := range traces {
			if traces[j].StatusCode != 200 {
				t.Fatalf("healthy host returned status %d", traces[j].StatusCode)
			}
			if logs[j].Level != models.LogInfo {
				t.Fatalf("healthy host logged level %s", logs[j].Level)
			}
		}
	}
}

func TestLogTraceDegradedHost(t *testing.T) {
	topo := testTopology(t, []string{"inventory-db"}, 1)
	synth := NewLogTraceSynthesizer(rand.New(rand.NewSource(3)))

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	inc := singleHostIncident(topo, models.KindDBContention, start, start.Add(4*time.Hour))
	want := "ConnectionPoolTimeoutException: Unable to acquire connection from pool"

	failures := 0
	for i := 0; i < 200; i++ {
		logs, traces := synth.Emit(start.Add(time.Duration(i)*time.Minute), []models.Incident{inc}, topo)
		for j := range traces {
			if traces[j].StatusCode == 500 {
				failures++
				if logs[j].Level != models.LogError {
					t.Fatalf("failed request logged level %s", logs[j].Level)
				}
				if logs[j].Message != want {
					t.Fatalf("unexpected error message %q", logs[j].Message)
				}
				if traces[j].DurationMs < 500 || traces[j].DurationMs > 2000 {
					t.Fatalf("failed request duration %f out of range", traces[j].DurationMs)
				}
			}
		}
	}
	if failures == 0 {
		t.Fatalf("db contention never produced a failed request")
	}
}

func TestFailureRates(t *testing.T) {
	if failureRate(models.KindNetworkPartition) != 0.6 || failureRate(models.KindCascadingFailure) != 0.6 {
		t.Fatalf("partition class failure rate wrong")
	}
	if failureRate(models.KindResourceExhaustion) != 0.5 || failureRate(models.KindDBContention) != 0.5 {
		t.Fatalf("exhaustion class failure rate wrong")
	}
	if failureRate(models.KindMemoryLeak) != 0.3 {
		t.Fatalf("default failure rate wrong")
	}
}
