package telemetry

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogSink_RecordsStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := NewLogSink(logger)

	sink.Record(AuditEvent{
		Kind:       KindJobStarted,
		DocumentID: "doc1",
		JobID:      "job1",
		At:         time.Now(),
		Detail:     "REPLACE",
	})

	out := buf.String()
	require.Contains(t, out, "job_started")
	require.Contains(t, out, "doc1")
	require.Contains(t, out, "job1")
}

func TestMetricsSink_CountersIncrementAndScrape(t *testing.T) {
	sink := NewMetricsSink()

	sink.Record(AuditEvent{Kind: KindJobStarted, Detail: "REPLACE"})
	sink.Record(AuditEvent{Kind: KindSectionGenerated, Detail: "REPLACE"})
	sink.Record(AuditEvent{Kind: KindSectionGenerated, Detail: "REPLACE"})
	sink.Record(AuditEvent{Kind: KindSectionFailed, Detail: "REPLACE"})
	sink.ObserveLLMRequestDuration("gpt-test", 250*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	sink.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	require.Contains(t, body, "sectionforge_jobs_started_total")
	require.Contains(t, body, "sectionforge_sections_generated_total")
	require.Contains(t, body, "sectionforge_sections_failed_total")
	require.Contains(t, body, "sectionforge_llm_request_duration_seconds")
	require.True(t, strings.Contains(body, `mode="REPLACE"`))
}

func TestMultiSink_FansOutToEveryChild(t *testing.T) {
	var buf bytes.Buffer
	logSink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	metricsSink := NewMetricsSink()
	multi := MultiSink{logSink, metricsSink}

	multi.Record(AuditEvent{Kind: KindJobStarted, Detail: "APPEND"})

	require.Contains(t, buf.String(), "job_started")

	rec := httptest.NewRecorder()
	metricsSink.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, rec.Body.String(), `mode="APPEND"`)
}
