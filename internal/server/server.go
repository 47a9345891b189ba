// Package server provides the HTTP entry point: the Twilio webhook, a health
// check and the admin candidate API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-intake/internal/config"
	"github.com/jonathan/cv-intake/internal/intake"
	"github.com/jonathan/cv-intake/internal/messaging"
	"github.com/jonathan/cv-intake/internal/server/middleware"
	"github.com/jonathan/cv-intake/internal/server/ratelimit"
	"github.com/jonathan/cv-intake/internal/store"
)

// ServiceName is reported by the health check.
const ServiceName = "cv-intake"

// MessageHandler processes one inbound message end to end.
type MessageHandler interface {
	Handle(ctx context.Context, msg *messaging.InboundMessage) (*intake.Outcome, error)
}

// CandidateQuerier answers the admin API.
type CandidateQuerier interface {
	List(ctx context.Context, limit int) ([]store.StoredCandidate, error)
	SearchByEmail(ctx context.Context, email string) (*store.StoredCandidate, error)
	Stats(ctx context.Context) (*store.Stats, error)
}

// Options wires a Server.
type Options struct {
	Server  config.ServerConfig
	Auth    config.AuthConfig
	Twilio  config.TwilioConfig
	Version string

	Handler    MessageHandler
	Candidates CandidateQuerier
	// Sender delivers the throttle notice for rate-limited messages, which
	// never reach Handler.
	Sender messaging.Sender
	// ProcessTimeout bounds one webhook submission. Zero means two minutes.
	ProcessTimeout time.Duration
	// RateLimitExempt is a comma-separated list of senders or IPs never limited.
	RateLimitExempt string
}

// Server is the HTTP server.
type Server struct {
	httpServer  *http.Server
	opts        Options
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	admin       config.AdminCredentials
}

// New builds the server and its routes. The admin API is mounted only when
// both a JWT secret and admin credentials are configured.
func New(opts Options) (*Server, error) {
	if opts.Handler == nil {
		return nil, fmt.Errorf("server: message handler is required")
	}
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = 2 * time.Minute
	}
	if opts.Server.ValidateSignature && opts.Twilio.AuthToken == "" {
		return nil, fmt.Errorf("server: signature validation needs a Twilio auth token")
	}

	s := &Server{
		opts:  opts,
		admin: opts.Auth.Admin(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.NewConfig(
			opts.Server.RateLimitPerMinute, opts.Server.RateLimitBurst, opts.RateLimitExempt)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook", s.handleWebhook)

	if opts.Auth.JWTSecret != "" && opts.Candidates != nil {
		jwtConfig, err := opts.Auth.JWT()
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT config: %w", err)
		}
		s.jwtService = NewJWTService(jwtConfig)

		protect := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
		mux.HandleFunc("POST /api/v1/auth/token", s.handleToken)
		mux.Handle("GET /api/v1/candidates", protect(http.HandlerFunc(s.handleListCandidates)))
		mux.Handle("GET /api/v1/stats", protect(http.HandlerFunc(s.handleStats)))
	} else {
		log.Printf("[server] admin API disabled (no JWT secret or candidate store)")
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Server.Port),
		Handler:           s.withRateLimit(s.withLogging(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      opts.ProcessTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// JWT returns the token service, or nil when the admin API is disabled.
func (s *Server) JWT() *JWTService {
	return s.jwtService
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.rateLimiter.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[server] listening on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("[server] shutting down")

		timeout := s.opts.Server.ShutdownTimeout()
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	log.Println("[server] stopped")
	return err
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[server] %s %s %d in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// withRateLimit limits admin routes per client IP. The webhook is limited per
// sender inside its handler, since Twilio posts every message from a few IPs.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == ratelimit.WebhookPath {
			next.ServeHTTP(w, r)
			return
		}
		if !s.allow(w, clientIP(r), r.URL.Path, r.Method) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow applies the limiter and writes the 429 response when denied.
func (s *Server) allow(w http.ResponseWriter, clientID, path, method string) bool {
	allowed, info := s.rateLimiter.Allow(clientID, path, method)
	setRateLimitHeaders(w, info)
	if !allowed {
		rateLimitResponse(w, info)
	}
	return allowed
}

// clientIP extracts the client address from RemoteAddr.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	retry := int(info.RetryAfter.Round(time.Second).Seconds())
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	log.Printf("[rate-limit] limit exceeded: limit=%d retry_after=%ds", info.Limit, retry)
	errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	version := s.opts.Version
	if version == "" {
		version = "dev"
	}
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": version,
	})
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes {"error": code, "message": message}.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": errorCode(status), "message": message})
}
