package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"
)

// DefaultSocketDir is where registry services expose their IPC endpoints;
// the socket name equals the service name.
const DefaultSocketDir = "/dev/socket"

const defaultTimeout = 10 * time.Second

// Client dials component-registry services. A zero Client connects through
// unix sockets under DefaultSocketDir; Addr switches to a plain HTTP base URL
// (used against the reference server and in tests).
type Client struct {
	SocketDir string        // unix socket directory, defaults to DefaultSocketDir
	Addr      string        // optional http(s) base URL overriding socket dialing
	Timeout   time.Duration // per-call timeout, defaults to 10s
}

// Session is a connected handle to one registry service. It carries no
// identity beyond the connection and is created per test case.
type Session struct {
	http    *http.Client
	baseURL string
}

// Connect establishes a session with the named registry service and verifies
// it answers. Callers must treat a nil session as unusable and short-circuit
// dependent assertions instead of dereferencing.
func (c *Client) Connect(ctx context.Context, serviceName string) (*Session, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &Session{}
	if c.Addr != "" {
		s.http = &http.Client{Timeout: timeout}
		s.baseURL = c.Addr
	} else {
		dir := c.SocketDir
		if dir == "" {
			dir = DefaultSocketDir
		}
		socket := filepath.Join(dir, serviceName)
		dialer := &net.Dialer{}
		s.http = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return dialer.DialContext(ctx, "unix", socket)
				},
			},
		}
		// host is ignored by the unix transport but must parse as a URL
		s.baseURL = "http://registry"
	}
	if err := s.ping(ctx); err != nil {
		return nil, fmt.Errorf("registry: connect %s: %w", serviceName, err)
	}
	return s, nil
}

func (s *Session) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/registry/ping", nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping status %d", resp.StatusCode)
	}
	return nil
}

// ListComponents returns every component the registry currently reports.
func (s *Session) ListComponents(ctx context.Context) ([]Component, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/registry/components", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, err
	}
	return lr.Components, nil
}

// CreateComponent asks the registry to instantiate the named component. A
// non-OK status comes back with a nil handle.
func (s *Session) CreateComponent(ctx context.Context, name string) (Status, *Component, error) {
	var cr createComponentResponse
	if err := s.post(ctx, "/registry/components", name, &cr); err != nil {
		return "", nil, err
	}
	return cr.Status, cr.Component, nil
}

// CreateInterface asks the registry for an interface handle to the named
// component, without instantiating it.
func (s *Session) CreateInterface(ctx context.Context, name string) (Status, *Interface, error) {
	var ir createInterfaceResponse
	if err := s.post(ctx, "/registry/interfaces", name, &ir); err != nil {
		return "", nil, err
	}
	return ir.Status, ir.Interface, nil
}

func (s *Session) post(ctx context.Context, path, name string, out any) error {
	body, err := json.Marshal(createRequest{Name: name})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
		return fmt.Errorf("registry: %s", er.Error)
	}
	return fmt.Errorf("registry: status %d", resp.StatusCode)
}
