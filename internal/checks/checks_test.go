package checks

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"halcheck/internal/fixture"
	"halcheck/internal/registry"
)

func table() fixture.Table {
	return fixture.Table{
		{Name: "componentA", Status: "ok"},
		{Name: "componentX", Status: "not_found"},
	}
}

// fakeSession lets tests script registry behavior the reference server cannot
// produce, e.g. a handle with the wrong name.
type fakeSession struct {
	list       []registry.Component
	listErr    error
	compStatus map[string]registry.Status
	compName   map[string]string // requested -> reported (defaults to requested)
}

func (f *fakeSession) ListComponents(context.Context) ([]registry.Component, error) {
	return f.list, f.listErr
}

func (f *fakeSession) CreateComponent(_ context.Context, name string) (registry.Status, *registry.Component, error) {
	st := f.compStatus[name]
	if !st.OK() {
		return st, nil, nil
	}
	reported := name
	if r, ok := f.compName[name]; ok {
		reported = r
	}
	return st, &registry.Component{Name: reported}, nil
}

func (f *fakeSession) CreateInterface(ctx context.Context, name string) (registry.Status, *registry.Interface, error) {
	st, comp, err := f.CreateComponent(ctx, name)
	if comp == nil {
		return st, nil, err
	}
	return st, &registry.Interface{Name: comp.Name}, err
}

func TestScenarioAgainstReferenceServer(t *testing.T) {
	// fixture: componentA expected ok, componentX expected not_found; the
	// reference registry serves only componentA.
	srv := httptest.NewServer(registry.NewServer([]string{"componentA"}).Handler())
	defer srv.Close()
	conn := &registry.Client{Addr: srv.URL}

	tbl := fixture.Table{
		{Name: "componentA", Status: "ok"},
		{Name: "componentX", Status: "not_found"},
	}
	rep := All(context.Background(), conn, "svc", tbl)
	// presence fails (componentX absent from the listing) but both creation
	// checks match the fixture exactly.
	var presence, creation int
	for _, v := range rep.Violations() {
		switch v.Check {
		case CheckPresence:
			presence++
		case CheckCreateComponent, CheckCreateInterface:
			creation++
		}
	}
	if presence == 0 {
		t.Fatalf("expected presence violations, got %v", rep.Violations())
	}
	if creation != 0 {
		t.Fatalf("unexpected creation violations: %v", rep.Violations())
	}
}

func TestAllFullConformance(t *testing.T) {
	srv := httptest.NewServer(registry.NewServer([]string{"componentA", "componentB"}).Handler())
	defer srv.Close()
	conn := &registry.Client{Addr: srv.URL}

	tbl := fixture.Table{
		{Name: "componentA", Status: "ok"},
		{Name: "componentB", Status: "ok"},
	}
	rep := All(context.Background(), conn, "svc", tbl)
	if !rep.Passed() {
		t.Fatalf("expected pass, got %v", rep.Violations())
	}
}

// countingConnector records how many sessions All opens.
type countingConnector struct {
	inner *registry.Client
	calls int
}

func (c *countingConnector) Connect(ctx context.Context, name string) (*registry.Session, error) {
	c.calls++
	return c.inner.Connect(ctx, name)
}

func TestAllConnectsPerCheck(t *testing.T) {
	srv := httptest.NewServer(registry.NewServer([]string{"componentA"}).Handler())
	defer srv.Close()
	conn := &countingConnector{inner: &registry.Client{Addr: srv.URL}}

	tbl := fixture.Table{{Name: "componentA", Status: "ok"}}
	rep := All(context.Background(), conn, "svc", tbl)
	if !rep.Passed() {
		t.Fatalf("expected pass, got %v", rep.Violations())
	}
	// one session for the connect check, then a fresh one per check
	if conn.calls != NumChecks {
		t.Fatalf("want %d sessions, got %d", NumChecks, conn.calls)
	}
}

func TestAllConnectFailureShortCircuits(t *testing.T) {
	conn := &registry.Client{Addr: "http://127.0.0.1:1"}
	rep := All(context.Background(), conn, "svc", table())
	vs := rep.Violations()
	if len(vs) != 1 || vs[0].Check != CheckConnect {
		t.Fatalf("want single connect violation, got %v", vs)
	}
}

func TestPresenceCardinalityAndNames(t *testing.T) {
	sess := &fakeSession{list: []registry.Component{
		{Name: "componentA"}, {Name: "stranger"}, {Name: "componentA"},
	}}
	rep := NewReport()
	Presence(context.Background(), sess, table(), rep)
	joined := joinDetails(rep)
	if !strings.Contains(joined, "count 3") {
		t.Errorf("cardinality violation missing: %s", joined)
	}
	if !strings.Contains(joined, `"componentX" not reported`) {
		t.Errorf("missing-name violation missing: %s", joined)
	}
	if !strings.Contains(joined, `"componentA" reported 2 times`) {
		t.Errorf("duplicate violation missing: %s", joined)
	}
}

func TestCreationChecksAreIndependent(t *testing.T) {
	sess := &fakeSession{
		compStatus: map[string]registry.Status{
			"componentA": registry.StatusCorrupted, // expected ok
			"componentX": registry.StatusNotFound,  // as expected
		},
	}
	rep := NewReport()
	ComponentCreation(context.Background(), sess, table(), rep)
	// the mismatch on componentA must not stop componentX being checked; only
	// componentA yields violations (wrong status + nil handle on expected ok).
	if got := len(rep.Violations()); got != 2 {
		t.Fatalf("want 2 violations, got %v", rep.Violations())
	}
}

func TestCreationHandleNameMismatch(t *testing.T) {
	sess := &fakeSession{
		compStatus: map[string]registry.Status{"componentA": registry.StatusOK},
		compName:   map[string]string{"componentA": "componentB"},
	}
	tbl := fixture.Table{{Name: "componentA", Status: "ok"}}
	rep := NewReport()
	ComponentCreation(context.Background(), sess, tbl, rep)
	if rep.Passed() || !strings.Contains(joinDetails(rep), `handle reports name "componentB"`) {
		t.Fatalf("name mismatch not caught: %v", rep.Violations())
	}

	rep = NewReport()
	InterfaceCreation(context.Background(), sess, tbl, rep)
	if rep.Passed() {
		t.Fatalf("interface name mismatch not caught: %v", rep.Violations())
	}
}

func joinDetails(rep *Report) string {
	var parts []string
	for _, v := range rep.Violations() {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}
