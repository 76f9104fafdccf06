package datadog

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"csvtosql/internal/metrics"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

type recordingSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (s *recordingSubmitter) SubmitMetrics(_ context.Context, body datadogV2.MetricPayload, _ ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, s.err
}

func (s *recordingSubmitter) submitted() []datadogV2.MetricPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]datadogV2.MetricPayload(nil), s.payloads...)
}

// newQuietBackend returns a backend whose ticker never fires within a test.
func newQuietBackend(t *testing.T, sub *recordingSubmitter, tags ...string) *Backend {
	t.Helper()
	t.Setenv("ENV", "test")
	b, err := NewBackend(context.Background(), Options{
		JobName:   "orders",
		Tags:      tags,
		submitter: sub,
		now:       func() time.Time { return time.Unix(1714564800, 0) },
		newTicker: func(time.Duration) *time.Ticker { return time.NewTicker(time.Hour) },
	})
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// seriesByName indexes a payload by metric name plus its step/status tags.
func seriesByName(p datadogV2.MetricPayload) map[string]datadogV2.MetricSeries {
	out := make(map[string]datadogV2.MetricSeries, len(p.Series))
	for _, s := range p.Series {
		key := s.Metric
		for _, tag := range s.Tags {
			if strings.HasPrefix(tag, "step:") || strings.HasPrefix(tag, "status:") || strings.HasPrefix(tag, "kind:") {
				key += " " + tag
			}
		}
		out[key] = s
	}
	return out
}

func value(s datadogV2.MetricSeries) float64 {
	if len(s.Points) != 1 || s.Points[0].Value == nil {
		return -1
	}
	return *s.Points[0].Value
}

// TestFlush_LoadTotals replays what a three-batch import records and checks
// the series a dashboard reads back.
func TestFlush_LoadTotals(t *testing.T) {
	sub := &recordingSubmitter{}
	b := newQuietBackend(t, sub, "table:orders")

	for _, bytes := range []float64{120, 120, 40} {
		b.IncCounter(metrics.BatchesTotal, 1, nil)
		b.IncCounter(metrics.BytesTotal, bytes, nil)
		b.IncCounter(metrics.RecordsTotal, 10, metrics.Labels{"kind": "inserted"})
		b.ObserveHistogram(metrics.StepDurationSeconds, 0.2, metrics.Labels{"step": "batch", "status": "ok"})
	}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "load", "status": "ok"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() err=%v", err)
	}
	got := sub.submitted()
	if len(got) != 1 {
		t.Fatalf("submissions=%d, want 1", len(got))
	}
	byName := seriesByName(got[0])

	for _, want := range []struct {
		name  string
		value float64
	}{
		{"csvtosql.batches.total", 3},
		{"csvtosql.bytes.total", 280},
		{"csvtosql.records.total kind:inserted", 30},
		{"csvtosql.step.total step:load status:ok", 1},
		{"csvtosql.step.duration_seconds.samples step:batch status:ok", 3},
		{"csvtosql.step.duration_seconds.max step:batch status:ok", 0.2},
	} {
		s, ok := byName[want.name]
		if !ok {
			t.Fatalf("missing series %q in %d series", want.name, len(got[0].Series))
		}
		if v := value(s); v != want.value {
			t.Fatalf("%s=%v, want %v", want.name, v, want.value)
		}
	}

	totals := byName["csvtosql.bytes.total"]
	if totals.Type == nil || *totals.Type != datadogV2.METRICINTAKETYPE_COUNT {
		t.Fatalf("bytes.total type=%v, want count", totals.Type)
	}
	if want := []string{"env:test", "job:orders", "table:orders"}; !reflect.DeepEqual(totals.Tags, want) {
		t.Fatalf("bytes.total tags=%v, want %v", totals.Tags, want)
	}
	if ts := totals.Points[0].Timestamp; ts == nil || *ts != 1714564800 {
		t.Fatalf("timestamp=%v", ts)
	}
}

func TestFlush_ResetsEvenWhenSubmitFails(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("403 Forbidden")}
	b := newQuietBackend(t, sub)

	b.IncCounter(metrics.BatchesTotal, 1, nil)
	if err := b.Flush(); err == nil {
		t.Fatalf("Flush() err=nil, want submit error")
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush() err=%v, want nil on empty buffers", err)
	}
	if n := len(sub.submitted()); n != 1 {
		t.Fatalf("submissions=%d, want 1", n)
	}
}

func TestBackend_IgnoresUnusableObservations(t *testing.T) {
	sub := &recordingSubmitter{}
	b := newQuietBackend(t, sub)

	b.IncCounter(metrics.BytesTotal, 0, nil)
	b.IncCounter(metrics.BatchesTotal, -1, nil)
	b.IncCounter(metrics.RecordsTotal, 5, nil)
	b.IncCounter("rows_skipped_total", 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, -0.5, metrics.Labels{"step": "ddl", "status": "ok"})
	b.ObserveHistogram("queue_depth", 3, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() err=%v", err)
	}
	if n := len(sub.submitted()); n != 0 {
		t.Fatalf("submissions=%d, want 0", n)
	}
}

func TestClose_FlushesRemainder(t *testing.T) {
	sub := &recordingSubmitter{}
	b, err := NewBackend(context.Background(), Options{
		submitter: sub,
		newTicker: func(time.Duration) *time.Ticker { return time.NewTicker(time.Hour) },
	})
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}
	if b.flushEvery != time.Minute {
		t.Fatalf("flushEvery=%s, want 1m", b.flushEvery)
	}

	b.IncCounter(metrics.BytesTotal, 64, nil)
	if err := b.Close(); err != nil {
		t.Fatalf("Close() err=%v", err)
	}
	got := sub.submitted()
	if len(got) != 1 || len(got[0].Series) != 1 || got[0].Series[0].Metric != "csvtosql.bytes.total" {
		t.Fatalf("payloads=%+v, want one bytes.total series", got)
	}
	if !contains(got[0].Series[0].Tags, "job:csvtosql") {
		t.Fatalf("tags=%v, want default job tag", got[0].Series[0].Tags)
	}
}

func TestBackend_TickerFlushes(t *testing.T) {
	sub := &recordingSubmitter{}
	b, err := NewBackend(context.Background(), Options{FlushEvery: 5 * time.Millisecond, submitter: sub})
	if err != nil {
		t.Fatalf("NewBackend() err=%v", err)
	}
	defer func() { _ = b.Close() }()

	b.IncCounter(metrics.BatchesTotal, 1, nil)
	deadline := time.Now().Add(time.Second)
	for len(sub.submitted()) == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if len(sub.submitted()) == 0 {
		t.Fatalf("no submission from the flush loop")
	}
}

func TestBackend_ConcurrentBatches(t *testing.T) {
	sub := &recordingSubmitter{}
	b := newQuietBackend(t, sub)

	const workers, batches = 8, 500
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < batches; i++ {
				b.IncCounter(metrics.BatchesTotal, 1, nil)
				b.IncCounter(metrics.BytesTotal, 2, nil)
			}
		}()
	}
	wg.Wait()

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() err=%v", err)
	}
	byName := seriesByName(sub.submitted()[0])
	if v := value(byName["csvtosql.batches.total"]); v != workers*batches {
		t.Fatalf("batches.total=%v, want %d", v, workers*batches)
	}
	if v := value(byName["csvtosql.bytes.total"]); v != 2*workers*batches {
		t.Fatalf("bytes.total=%v, want %d", v, 2*workers*batches)
	}
}

func TestResolveEnvTag(t *testing.T) {
	tests := []struct {
		env, ddEnv, want string
	}{
		{"prod", "staging", "env:prod"},
		{"", "staging", "env:staging"},
		{" ", "", "env:unknown"},
	}
	for _, tc := range tests {
		t.Setenv("ENV", tc.env)
		t.Setenv("DD_ENV", tc.ddEnv)
		if got := resolveEnvTag(); got != tc.want {
			t.Fatalf("ENV=%q DD_ENV=%q: resolveEnvTag()=%q, want %q", tc.env, tc.ddEnv, got, tc.want)
		}
	}
}

func TestPercentileNearestRank(t *testing.T) {
	t.Parallel()

	sorted := []float64{0.1, 0.2, 0.3, 0.4, 2.5}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 0.1},
		{0.5, 0.3},
		{0.9, 2.5},
		{1, 2.5},
	}
	for _, tc := range tests {
		if got := percentileNearestRank(sorted, tc.p); got != tc.want {
			t.Fatalf("p%v=%v, want %v", tc.p*100, got, tc.want)
		}
	}
	if got := percentileNearestRank(nil, 0.5); got != 0 {
		t.Fatalf("empty=%v, want 0", got)
	}
}

func TestParseTagsCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"table:orders", []string{"table:orders"}},
		{" env:prod , ,table:orders,", []string{"env:prod", "table:orders"}},
	}
	for _, tc := range tests {
		if got := ParseTagsCSV(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseTagsCSV(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
