package history

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func sampleRecord() RunRecord {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return RunRecord{
		Service:    "hardware-intel-media-c2-hal-1-0",
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Checks:     4,
		Violations: 1,
		Passed:     false,
		Detail:     `presence: component "c2.missing" not reported`,
	}
}

func TestSQLSinkSQLiteRoundTrip(t *testing.T) {
	s, err := NewSQLSinkFromDSN(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	if err := s.Send(ctx, sampleRecord()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.Send(ctx, sampleRecord()); err != nil {
		t.Fatalf("send 2: %v", err)
	}
	n, err := s.Count(ctx, "hardware-intel-media-c2-hal-1-0")
	if err != nil || n != 2 {
		t.Fatalf("count=%d err=%v", n, err)
	}
	n, err = s.Count(ctx, "other-service")
	if err != nil || n != 0 {
		t.Fatalf("count other=%d err=%v", n, err)
	}
}

func TestSQLSinkEmptyDSN(t *testing.T) {
	if _, err := NewSQLSinkFromDSN("  "); err == nil {
		t.Fatal("expected error")
	}
}

func TestClickHouseSink(t *testing.T) {
	var gotQuery, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewClickHouseSink(srv.URL, "conformance_runs")
	if err := s.Send(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotQuery != "INSERT INTO conformance_runs FORMAT JSONEachRow" {
		t.Fatalf("query %q", gotQuery)
	}
	var rec RunRecord
	if err := json.Unmarshal([]byte(strings.TrimSpace(gotBody)), &rec); err != nil {
		t.Fatalf("body not JSONEachRow: %v\n%s", err, gotBody)
	}
	if rec.Service != "hardware-intel-media-c2-hal-1-0" || rec.Checks != 4 {
		t.Fatalf("record round-trip: %+v", rec)
	}
}

func TestOpenSearchSink(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewOpenSearchSink(srv.URL, "halcheck-runs")
	if err := s.Send(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/halcheck-runs/_doc" {
		t.Fatalf("path %q", gotPath)
	}
}

func TestClickHouseSinkFromURLRoutesByScheme(t *testing.T) {
	s, err := NewClickHouseSinkFromURL("http://localhost:8123?table=runs", "")
	if err != nil {
		t.Fatalf("http route: %v", err)
	}
	hs, ok := s.(*ClickHouseSink)
	if !ok {
		t.Fatalf("want HTTP sink, got %T", s)
	}
	if hs.table != "runs" {
		t.Fatalf("table %q", hs.table)
	}
	if hs.base != "http://localhost:8123" {
		t.Fatalf("base %q carries query", hs.base)
	}

	// clickhouse:// selects the native driver, which dials eagerly
	if _, err := NewClickHouseSinkFromURL("clickhouse://127.0.0.1:1", "runs"); err == nil {
		t.Fatal("expected connect error against closed port")
	}
}

func TestHTTPSinksSurfaceServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewClickHouseSink(srv.URL, "t").Send(context.Background(), sampleRecord()); err == nil {
		t.Fatal("clickhouse: expected error")
	}
	if err := NewOpenSearchSink(srv.URL, "i").Send(context.Background(), sampleRecord()); err == nil {
		t.Fatal("opensearch: expected error")
	}
}
