package registry

import (
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"halcheck/internal/metrics"
)

// Server is an in-process reference implementation of the registry wire
// protocol. The harness's own tests run against it, and `halcheck registry`
// serves it as a development stand-in for a real service.
type Server struct {
	mu         sync.Mutex
	components map[string]struct{}
	basePath   string
}

// NewServer builds a reference registry supporting the given component names.
func NewServer(components []string) *Server {
	m := make(map[string]struct{}, len(components))
	for _, c := range components {
		m[c] = struct{}{}
	}
	return &Server{components: m, basePath: "/registry"}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server or mux (including echo via WrapHandler).
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(s.basePath)
	group.GET("/ping", s.handlePing)
	group.GET("/components", s.handleList)
	group.POST("/components", s.handleCreateComponent)
	group.POST("/interfaces", s.handleCreateInterface)
	return g
}

// ListenUnix serves the registry over a unix socket at path, replacing any
// stale socket file. The returned shutdown func closes the listener.
func (s *Server) ListenUnix(path string) (func(), error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	srv := s.httpServer()
	go func() { _ = srv.Serve(ln) }()
	return func() {
		_ = srv.Close()
		_ = os.Remove(path)
	}, nil
}

// ListenTCP serves the registry on a TCP addr, mainly for development.
func (s *Server) ListenTCP(addr string) (*http.Server, error) {
	srv := s.httpServer()
	srv.Addr = addr
	go func() { _ = srv.ListenAndServe() }()
	return srv, nil
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) handlePing(c *gin.Context) {
	metrics.IncRegistryRequest("ping")
	c.JSON(http.StatusOK, pingResponse{OK: true})
}

func (s *Server) handleList(c *gin.Context) {
	metrics.IncRegistryRequest("list")
	s.mu.Lock()
	names := make([]string, 0, len(s.components))
	for n := range s.components {
		names = append(names, n)
	}
	s.mu.Unlock()
	sort.Strings(names)
	comps := make([]Component, len(names))
	for i, n := range names {
		comps[i] = Component{Name: n}
	}
	c.JSON(http.StatusOK, listResponse{Components: comps})
}

func (s *Server) handleCreateComponent(c *gin.Context) {
	metrics.IncRegistryRequest("create_component")
	name, ok := s.bindName(c)
	if !ok {
		return
	}
	if !s.supported(name) {
		c.JSON(http.StatusOK, createComponentResponse{Status: StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, createComponentResponse{Status: StatusOK, Component: &Component{Name: name}})
}

func (s *Server) handleCreateInterface(c *gin.Context) {
	metrics.IncRegistryRequest("create_interface")
	name, ok := s.bindName(c)
	if !ok {
		return
	}
	if !s.supported(name) {
		c.JSON(http.StatusOK, createInterfaceResponse{Status: StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, createInterfaceResponse{Status: StatusOK, Interface: &Interface{Name: name}})
}

func (s *Server) bindName(c *gin.Context) (string, bool) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return "", false
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "name required"})
		return "", false
	}
	return req.Name, true
}

func (s *Server) supported(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.components[name]
	return ok
}
