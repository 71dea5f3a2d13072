package registry

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
)

func newTestSession(t *testing.T, components []string) *Session {
	t.Helper()
	srv := httptest.NewServer(NewServer(components).Handler())
	t.Cleanup(srv.Close)
	c := &Client{Addr: srv.URL}
	sess, err := c.Connect(context.Background(), "test")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return sess
}

func TestConnectFailure(t *testing.T) {
	c := &Client{Addr: "http://127.0.0.1:1"}
	sess, err := c.Connect(context.Background(), "unreachable")
	if err == nil || sess != nil {
		t.Fatalf("expected nil session and error, got %v %v", sess, err)
	}
}

func TestConnectUnixSocket(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	dir := t.TempDir()
	socket := filepath.Join(dir, "c2svc")
	shutdown, err := NewServer([]string{"comp"}).ListenUnix(socket)
	if err != nil {
		t.Fatalf("listen unix: %v", err)
	}
	defer shutdown()

	c := &Client{SocketDir: dir}
	sess, err := c.Connect(context.Background(), "c2svc")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	comps, err := sess.ListComponents(context.Background())
	if err != nil || len(comps) != 1 || comps[0].Name != "comp" {
		t.Fatalf("list over unix socket: %v %v", comps, err)
	}
}

func TestListComponents(t *testing.T) {
	sess := newTestSession(t, []string{"b.decoder", "a.encoder"})
	comps, err := sess.ListComponents(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comps) != 2 {
		t.Fatalf("got %d components", len(comps))
	}
	if comps[0].Name != "a.encoder" || comps[1].Name != "b.decoder" {
		t.Fatalf("unexpected order: %v", comps)
	}
}

func TestCreateComponent(t *testing.T) {
	sess := newTestSession(t, []string{"componentA"})

	st, comp, err := sess.CreateComponent(context.Background(), "componentA")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st != StatusOK || comp == nil || comp.Name != "componentA" {
		t.Fatalf("got status=%v comp=%+v", st, comp)
	}

	st, comp, err = sess.CreateComponent(context.Background(), "componentX")
	if err != nil {
		t.Fatalf("create missing: %v", err)
	}
	if st != StatusNotFound || comp != nil {
		t.Fatalf("got status=%v comp=%+v want not_found,nil", st, comp)
	}
}

func TestCreateInterface(t *testing.T) {
	sess := newTestSession(t, []string{"componentA"})

	st, itf, err := sess.CreateInterface(context.Background(), "componentA")
	if err != nil || st != StatusOK || itf == nil || itf.Name != "componentA" {
		t.Fatalf("got status=%v itf=%+v err=%v", st, itf, err)
	}
	st, itf, err = sess.CreateInterface(context.Background(), "componentX")
	if err != nil || st != StatusNotFound || itf != nil {
		t.Fatalf("got status=%v itf=%+v err=%v", st, itf, err)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	sess := newTestSession(t, []string{"componentA"})
	if _, _, err := sess.CreateComponent(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus("ok"); err != nil || st != StatusOK {
		t.Fatalf("ok: %v %v", st, err)
	}
	if st, err := ParseStatus("not_found"); err != nil || st != StatusNotFound {
		t.Fatalf("not_found: %v %v", st, err)
	}
	if _, err := ParseStatus("nope"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if StatusOK.OK() != true || StatusNotFound.OK() {
		t.Fatal("OK predicate wrong")
	}
}
