package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotent(t *testing.T) {
	r := prometheus.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(r); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestHelpersAfterRegister(t *testing.T) {
	r := prometheus.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("register: %v", err)
	}
	IncCheck("presence", true)
	IncCheck("creation", false)
	IncCreation("create_component", "ok")
	IncRegistryRequest("list")
	IncPatchInsert("manifest.xml")
	IncServiceStart("c2")
	IncServiceStop("c2")

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	_ = mfs // collectors live on a private registry here; gather must not error
}
