// Package checks holds the scenario-level conformance assertions comparing a
// live registry against the expected component fixture table.
package checks

import (
	"context"

	"halcheck/internal/fixture"
	"halcheck/internal/metrics"
	"halcheck/internal/registry"
)

// Check names as they appear in reports and metrics.
const (
	CheckConnect         = "connect"
	CheckPresence        = "presence"
	CheckCreateComponent = "create_component"
	CheckCreateInterface = "create_interface"
)

// NumChecks is how many checks All runs per cycle.
const NumChecks = 4

// Session is the registry surface the checks drive; *registry.Session
// satisfies it.
type Session interface {
	ListComponents(ctx context.Context) ([]registry.Component, error)
	CreateComponent(ctx context.Context, name string) (registry.Status, *registry.Component, error)
	CreateInterface(ctx context.Context, name string) (registry.Status, *registry.Interface, error)
}

// Presence verifies the registry reports exactly the fixture's component set:
// same cardinality, and every fixture name found among actual entries by
// exact equality.
func Presence(ctx context.Context, sess Session, tbl fixture.Table, rep *Report) {
	actual, err := sess.ListComponents(ctx)
	if err != nil {
		rep.addf(CheckPresence, "list components: %v", err)
		return
	}
	if len(actual) != len(tbl) {
		rep.addf(CheckPresence, "component count %d, fixture has %d", len(actual), len(tbl))
	}
	names := make(map[string]int, len(actual))
	for _, c := range actual {
		names[c.Name]++
	}
	for _, d := range tbl {
		switch names[d.Name] {
		case 0:
			rep.addf(CheckPresence, "component %q not reported", d.Name)
		case 1:
		default:
			rep.addf(CheckPresence, "component %q reported %d times", d.Name, names[d.Name])
		}
	}
}

// ComponentCreation verifies createComponent returns each fixture entry's
// expected status exactly; on expected success the handle must be non-nil and
// report the requested name, on expected failure it must be nil.
func ComponentCreation(ctx context.Context, sess Session, tbl fixture.Table, rep *Report) {
	for _, d := range tbl {
		st, comp, err := sess.CreateComponent(ctx, d.Name)
		if err != nil {
			rep.addf(CheckCreateComponent, "%s: %v", d.Name, err)
			continue
		}
		metrics.IncCreation(CheckCreateComponent, string(st))
		if st != d.ExpectedStatus() {
			rep.addf(CheckCreateComponent, "%s: status %q, expected %q", d.Name, st, d.ExpectedStatus())
		}
		if d.ExpectedStatus().OK() {
			if comp == nil {
				rep.addf(CheckCreateComponent, "%s: nil handle on expected success", d.Name)
			} else if comp.Name != d.Name {
				rep.addf(CheckCreateComponent, "%s: handle reports name %q", d.Name, comp.Name)
			}
		} else if comp != nil {
			rep.addf(CheckCreateComponent, "%s: non-nil handle on expected failure", d.Name)
		}
	}
}

// InterfaceCreation is ComponentCreation for createInterface.
func InterfaceCreation(ctx context.Context, sess Session, tbl fixture.Table, rep *Report) {
	for _, d := range tbl {
		st, itf, err := sess.CreateInterface(ctx, d.Name)
		if err != nil {
			rep.addf(CheckCreateInterface, "%s: %v", d.Name, err)
			continue
		}
		metrics.IncCreation(CheckCreateInterface, string(st))
		if st != d.ExpectedStatus() {
			rep.addf(CheckCreateInterface, "%s: status %q, expected %q", d.Name, st, d.ExpectedStatus())
		}
		if d.ExpectedStatus().OK() {
			if itf == nil {
				rep.addf(CheckCreateInterface, "%s: nil handle on expected success", d.Name)
			} else if itf.Name != d.Name {
				rep.addf(CheckCreateInterface, "%s: handle reports name %q", d.Name, itf.Name)
			}
		} else if itf != nil {
			rep.addf(CheckCreateInterface, "%s: non-nil handle on expected failure", d.Name)
		}
	}
}

// Connector abstracts registry.Client.Connect for the runner.
type Connector interface {
	Connect(ctx context.Context, serviceName string) (*registry.Session, error)
}

// All runs every conformance check against the named registry service. Each
// check opens its own session; no registry state carries over between them.
// A failed initial connect short-circuits with a single violation instead of
// letting the dependent checks run against a service that is not answering.
func All(ctx context.Context, conn Connector, serviceName string, tbl fixture.Table) *Report {
	rep := NewReport()
	if _, err := conn.Connect(ctx, serviceName); err != nil {
		rep.addf(CheckConnect, "%v", err)
		metrics.IncCheck(CheckConnect, false)
		return rep
	}
	metrics.IncCheck(CheckConnect, true)
	run(ctx, conn, serviceName, tbl, rep, CheckPresence, Presence)
	run(ctx, conn, serviceName, tbl, rep, CheckCreateComponent, ComponentCreation)
	run(ctx, conn, serviceName, tbl, rep, CheckCreateInterface, InterfaceCreation)
	return rep
}

func run(ctx context.Context, conn Connector, serviceName string, tbl fixture.Table, rep *Report,
	name string, fn func(context.Context, Session, fixture.Table, *Report)) {
	before := len(rep.violations)
	sess, err := conn.Connect(ctx, serviceName)
	if err != nil {
		rep.addf(name, "connect: %v", err)
	} else {
		fn(ctx, sess, tbl, rep)
	}
	metrics.IncCheck(name, len(rep.violations) == before)
}
