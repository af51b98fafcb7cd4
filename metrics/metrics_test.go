package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bibassitoula/Impatient/engine"
)

var _ engine.StageObserver = (*Metrics)(nil)

func TestStageFinishedCounts(t *testing.T) {
	m := New()
	m.StageFinished(engine.NodeID("term_frequency"), 10*time.Millisecond, nil)
	m.StageFinished(engine.NodeID("join"), time.Second, errors.New("boom"))
	m.RecordsReadTotal.Add(7)
	m.RunsTotal.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"tfidf_records_read_total 7",
		`tfidf_stage_failures_total{stage="join"} 1`,
		`tfidf_runs_total{status="ok"} 1`,
		`tfidf_stage_duration_seconds_count{stage="term_frequency"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape output missing %q:\n%s", want, body)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	a := New()
	b := New()
	a.RecordsReadTotal.Add(5)

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(rec.Body.String(), "tfidf_records_read_total 5") {
		t.Fatal("registries are shared between instances")
	}
}
