// Package server exposes a simulator over two HTTP listeners: a WebSocket
// stream of position frames and a control API for reset, health, metrics
// and operator login.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/unklstewy/ads-bsim/internal/auth"
	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/config"
	"github.com/unklstewy/ads-bsim/pkg/sim"
)

const shutdownTimeout = 10 * time.Second

// Options configures optional server behavior.
type Options struct {
	// ResetMessage is returned by POST /reset
	ResetMessage string

	// Auth guards /reset when non-nil and enables /auth/login
	Auth *auth.Service
}

// Server streams one simulator and serves its control endpoints.
type Server struct {
	sim     *sim.Simulator
	cfg     config.ServerConfig
	opts    Options
	hub     *Hub
	metrics *Metrics
	limiter *rate.Limiter

	stream  chi.Router
	control chi.Router

	publishMu   sync.Mutex
	lastPublish time.Time
}

// New creates a server for s. The simulator is not started until Run.
func New(s *sim.Simulator, cfg config.ServerConfig, opts Options) *Server {
	if opts.ResetMessage == "" {
		opts.ResetMessage = s.Name() + " reset"
	}

	hub := NewHub(s.Name(), cfg.AllowedOrigins)
	srv := &Server{
		sim:     s,
		cfg:     cfg,
		opts:    opts,
		hub:     hub,
		metrics: NewMetrics(s, hub),
		limiter: newResetLimiter(cfg.ResetsPerMinute),
	}
	srv.setupRoutes()
	return srv
}

// newResetLimiter returns nil when resets are unlimited.
func newResetLimiter(perMinute float64) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	burst := int(math.Ceil(perMinute / 10))
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), burst)
}

func (s *Server) setupRoutes() {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	// Stream: no compression or timeouts on upgraded connections
	stream := chi.NewRouter()
	stream.Use(middleware.Recoverer)
	stream.Use(middleware.RealIP)
	stream.Use(corsHandler)
	stream.Handle("/", s.hub)
	s.stream = stream

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Compress(5))
	r.Use(corsHandler)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	if s.opts.Auth != nil {
		r.Post("/auth/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.opts.Auth.Middleware(auth.RoleOperator))
			r.Post("/reset", s.handleReset)
		})
	} else {
		r.Post("/reset", s.handleReset)
	}
	s.control = r
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.AllowedOrigins
}

// StreamHandler serves the WebSocket stream.
func (s *Server) StreamHandler() http.Handler {
	return s.stream
}

// ControlHandler serves /reset, /health, /metrics and /auth/login.
func (s *Server) ControlHandler() http.Handler {
	return s.control
}

// Hub returns the listener hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Publish encodes snap and broadcasts it. Snapshots older than the last one
// published are skipped, so a tick computed before a reset cannot overwrite
// the reset state on the wire.
func (s *Server) Publish(snap sim.Snapshot) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if snap.Time.Before(s.lastPublish) {
		return
	}

	frame, err := s.sim.Encode(snap)
	if err != nil {
		log.Printf("❌ %s: failed to encode snapshot: %v", s.sim.Name(), err)
		return
	}
	s.lastPublish = snap.Time
	s.hub.Broadcast(frame)
}

// Run starts the simulator and both listeners, and blocks until ctx is
// cancelled or a listener fails. Listeners are shut down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	servers := []*http.Server{
		{
			Addr:              net.JoinHostPort(s.cfg.BindHost, s.cfg.StreamPort),
			Handler:           s.stream,
			ReadHeaderTimeout: 10 * time.Second,
		},
		{
			Addr:         net.JoinHostPort(s.cfg.BindHost, s.cfg.ControlPort),
			Handler:      s.control,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	errc := make(chan error, len(servers))
	for _, hs := range servers {
		go func(hs *http.Server) {
			log.Printf("📡 %s listening on %s", s.sim.Name(), hs.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("listener %s failed: %w", hs.Addr, err)
			}
		}(hs)
	}

	// Seed frame for listeners that connect before the first tick
	s.Publish(s.sim.Snapshot())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.sim.Run(ctx, s.Publish)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
	}
	cancel()

	log.Printf("👋 Shutting down %s...", s.sim.Name())
	s.hub.Close()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	for _, hs := range servers {
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Shutdown of %s: %v", hs.Addr, err)
		}
	}
	wg.Wait()

	log.Printf("✅ %s stopped", s.sim.Name())
	return runErr
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil {
		res := s.limiter.Reserve()
		if !res.OK() || res.Delay() > 0 {
			wait := res.Delay()
			res.Cancel()
			if wait <= 0 {
				wait = time.Second
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			s.metrics.resetRequests.WithLabelValues("limited").Inc()
			respondJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "reset rate limit exceeded",
			})
			return
		}
	}

	snap := s.sim.Reset()
	s.Publish(snap)
	s.metrics.resetRequests.WithLabelValues("ok").Inc()

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		log.Printf("🔄 %s reset by %s", s.sim.Name(), claims.Username)
	}

	respondJSON(w, http.StatusOK, adsb.ResetResponse{Message: s.opts.ResetMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.sim.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"simulator": s.sim.Name(),
		"clients":   s.hub.Clients(),
		"aircraft":  stats.Aircraft,
		"ticks":     stats.Ticks,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, claims, err := s.opts.Auth.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	log.Printf("🔑 %s logged in (%s)", claims.Username, claims.Role)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.Time,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
