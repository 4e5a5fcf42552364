// Package mockapi provides an in-process fake of the listing backend for
// tests and local demos. It speaks the same envelope contract as the real
// API, serves seeded jobs and campus events together with basic job stats,
// accepts orders, and records per-path request counts. Latency and failures
// can be injected per path.
package mockapi

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application codes returned in the envelope.
const (
	CodeOK         = 0
	CodeNotFound   = 40400
	CodeBadRequest = 40000
	CodeValidation = 42200
	CodeInternal   = 50000
)

// Failure is an injected error response.
type Failure struct {
	StatusCode int
	Code       int
	Message    string
}

// Config holds mock backend configuration.
type Config struct {
	// Jobs and CampusEvents set how many rows are seeded.
	Jobs         int
	CampusEvents int

	// Now anchors seeded timestamps (for deterministic tests).
	Now time.Time

	Logger *zerolog.Logger
}

// DefaultConfig returns a backend seeded with 120 jobs and 45 campus events.
func DefaultConfig() Config {
	return Config{
		Jobs:         120,
		CampusEvents: 45,
	}
}

// Server is a configurable fake listing backend.
type Server struct {
	engine *gin.Engine
	server *httptest.Server
	logger zerolog.Logger

	mu        sync.RWMutex
	jobs      []job
	events    []campusEvent
	orders    []order
	counts    map[string]int
	lastQuery map[string]url.Values
	failures  map[string]Failure
	delay     time.Duration
}

// New creates a mock backend. Use Handler to serve it or Start for an
// httptest server.
func New(cfg Config) *Server {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC().Truncate(time.Second)
	}

	logger := log.With().Str("component", "mock-api").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "mock-api").Logger()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:    gin.New(),
		logger:    logger,
		jobs:      seedJobs(cfg.Jobs, cfg.Now),
		events:    seedCampusEvents(cfg.CampusEvents, cfg.Now),
		counts:    make(map[string]int),
		lastQuery: make(map[string]url.Values),
		failures:  make(map[string]Failure),
	}

	s.engine.Use(gin.Recovery(), s.requestContext(), s.track())
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	v1.GET("/jobs", s.listJobs)
	v1.GET("/jobs/:id", s.jobDetail)
	v1.GET("/campus-events", s.listCampusEvents)
	v1.GET("/campus-events/:id", s.campusEventDetail)
	v1.GET("/orders", s.listOrders)
	v1.POST("/orders", s.createOrder)
	v1.GET("/orders/:id", s.orderDetail)
	v1.GET("/stats/basic", s.basicStats)

	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves the API on a local httptest server.
func (s *Server) Start() *Server {
	s.server = httptest.NewServer(s.engine)
	return s
}

// URL returns the base URL of a started server.
func (s *Server) URL() string {
	if s.server == nil {
		return ""
	}
	return s.server.URL
}

// Close shuts down a started server.
func (s *Server) Close() {
	if s.server != nil {
		s.server.Close()
	}
}

// SetDelay delays every API response.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetFailure makes every request to path fail until ClearFailures.
func (s *Server) SetFailure(path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = f
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
}

// RequestCount returns the number of requests made to path.
func (s *Server) RequestCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[path]
}

// TotalRequests returns the number of requests across all paths.
func (s *Server) TotalRequests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// LastQuery returns the query of the most recent request to path.
func (s *Server) LastQuery(path string) url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastQuery[path]
}

// Reset clears request tracking.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]int)
	s.lastQuery = make(map[string]url.Values)
}

// requestContext assigns every request an ID, echoing X-Request-ID when the
// caller sent one.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("request_id", requestID).
			Dur("duration", time.Since(start)).
			Msg("Mock request")
	}
}

// track records the request and applies injected latency and failures.
func (s *Server) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		s.mu.Lock()
		s.counts[path]++
		s.lastQuery[path] = c.Request.URL.Query()
		delay := s.delay
		failure, failing := s.failures[path]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if failing {
			s.fail(c, failure.StatusCode, failure.Code, failure.Message)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) ok(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, gin.H{
		"code":       CodeOK,
		"message":    message,
		"request_id": c.GetString("request_id"),
		"data":       data,
	})
}

func (s *Server) fail(c *gin.Context, status, code int, message string) {
	c.JSON(status, gin.H{
		"code":       code,
		"message":    message,
		"request_id": c.GetString("request_id"),
		"data":       nil,
	})
}

func genOrderNo(now time.Time) string {
	return fmt.Sprintf("ODR%s%04d", now.Format("20060102150405"), 1000+rand.Intn(9000))
}
