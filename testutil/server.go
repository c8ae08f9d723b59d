package testutil

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/deferhttp/component"
)

// Server is an in-process HTTP server with fixed routes and a per-path hit
// counter:
//
//	ANY  /               body is the request method
//	GET  /error          400, empty body
//	GET  /json           200, body {}
//	ANY  /status/:code   the given status, empty body
//	ANY  /echo           JSON of method, query, headers, cookies and body
//	GET  /slow?delay=    waits for delay (default 1s) or client disconnect
//	GET  /redirect/:n    redirects n times, then to /
//
// It implements TestComponent; Reset clears the hit counter.
type Server struct {
	name   string
	engine *gin.Engine

	mu   sync.Mutex
	srv  *httptest.Server
	hits map[string]int
}

// NewServer creates a server. Routes can be added through Engine before
// Start.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		name:   "testutil.server",
		engine: gin.New(),
		hits:   make(map[string]int),
	}
	s.engine.Use(s.count)
	s.routes()
	return s
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.hits[c.Request.URL.Path]++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) routes() {
	s.engine.Any("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.Request.Method)
	})
	s.engine.GET("/error", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})
	s.engine.GET("/json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte("{}"))
	})
	s.engine.Any("/status/:code", func(c *gin.Context) {
		code, err := strconv.Atoi(c.Param("code"))
		if err != nil || code < 100 || code > 599 {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(code)
	})
	s.engine.Any("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		cookies := make(map[string]string)
		for _, ck := range c.Request.Cookies() {
			cookies[ck.Name] = ck.Value
		}
		headers := make(map[string]string)
		for k := range c.Request.Header {
			headers[k] = c.Request.Header.Get(k)
		}
		query := make(map[string]string)
		for k := range c.Request.URL.Query() {
			query[k] = c.Query(k)
		}
		c.JSON(http.StatusOK, gin.H{
			"method":  c.Request.Method,
			"query":   query,
			"headers": headers,
			"cookies": cookies,
			"body":    string(body),
		})
	})
	s.engine.GET("/slow", func(c *gin.Context) {
		delay, err := time.ParseDuration(c.DefaultQuery("delay", "1s"))
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		select {
		case <-time.After(delay):
			c.String(http.StatusOK, "slow")
		case <-c.Request.Context().Done():
		}
	})
	s.engine.GET("/redirect/:n", func(c *gin.Context) {
		n, err := strconv.Atoi(c.Param("n"))
		if err != nil || n <= 1 {
			c.Redirect(http.StatusFound, "/")
			return
		}
		c.Redirect(http.StatusFound, fmt.Sprintf("/redirect/%d", n-1))
	})
}

// Engine returns the gin engine for extra routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Name implements component.Component.
func (s *Server) Name() string {
	return s.name
}

// Start begins serving on a loopback port. HTTP/2 cleartext is accepted
// alongside HTTP/1.1.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}
	s.srv = httptest.NewServer(h2c.NewHandler(s.engine, &http2.Server{}))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(_ context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv != nil {
		srv.Close()
	}
	return nil
}

// Health implements component.Component.
func (s *Server) Health(_ context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return component.Health{Name: s.name, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.name, Status: component.StatusHealthy}
}

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return ""
	}
	return s.srv.URL
}

// Hits returns the number of requests received for path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests received.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// Reset clears the hit counter.
func (s *Server) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.hits)
	return nil
}

// Snapshot returns a copy of the hit counter.
func (s *Server) Snapshot(_ context.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.hits), nil
}

// Restore replaces the hit counter with a snapshot.
func (s *Server) Restore(_ context.Context, snapshot any) error {
	hits, ok := snapshot.(map[string]int)
	if !ok {
		return fmt.Errorf("testutil: unexpected snapshot type %T", snapshot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = maps.Clone(hits)
	return nil
}

// StartServer starts a Server for the duration of t.
func StartServer(t testing.TB) *Server {
	t.Helper()
	s := NewServer()
	T(t).Setup(s)
	return s
}
