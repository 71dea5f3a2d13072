package halcheck

import (
	"context"
	"net/http/httptest"
	"testing"

	cfg "halcheck/internal/config"
)

func TestFacadeRegistryRoundTrip(t *testing.T) {
	srv := httptest.NewServer(NewRegistryServer([]string{"componentA"}).Handler())
	defer srv.Close()

	client := &RegistryClient{Addr: srv.URL}
	sess, err := client.Connect(context.Background(), "svc")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	st, comp, err := sess.CreateComponent(context.Background(), "componentA")
	if err != nil || st != StatusOK || comp == nil || comp.Name != "componentA" {
		t.Fatalf("create: %v %v %v", st, comp, err)
	}
	st, comp, err = sess.CreateComponent(context.Background(), "componentX")
	if err != nil || st != StatusNotFound || comp != nil {
		t.Fatalf("create missing: %v %v %v", st, comp, err)
	}
}

func TestNewSinkFromConfig(t *testing.T) {
	s, err := NewSinkFromConfig(cfg.HistoryConfig{Type: "none"})
	if err != nil || s != nil {
		t.Fatalf("none: %v %v", s, err)
	}
	s, err = NewSinkFromConfig(cfg.HistoryConfig{Type: "sql", DSN: ":memory:"})
	if err != nil || s == nil {
		t.Fatalf("sql: %v %v", s, err)
	}
	s, err = NewSinkFromConfig(cfg.HistoryConfig{Type: "clickhouse", URL: "http://localhost:8123", Table: "runs"})
	if err != nil || s == nil {
		t.Fatalf("clickhouse: %v %v", s, err)
	}
}

func TestRegisterMetricsDefault(t *testing.T) {
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("second register: %v", err)
	}
}
