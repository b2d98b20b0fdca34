// Package service exposes perpsign over a local HTTP JSON API. It holds no
// keys: every request carries the material it needs and nothing is persisted.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"perpsign/shared"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP signing service.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	metrics  *Metrics
	validate *validator.Validate
	gatherer prometheus.Gatherer
	started  time.Time
	handler  http.Handler
}

// New builds a Server whose metrics live in registry. A nil registry uses
// the Prometheus default registry.
func New(cfg Config, logger *zap.Logger, registry *prometheus.Registry) *Server {
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if registry != nil {
		reg, gatherer = registry, registry
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		metrics:  NewMetrics(reg),
		validate: newValidator(),
		gatherer: gatherer,
		started:  time.Now(),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/keys/derive", s.instrument("derive", http.HandlerFunc(s.handleDerive)))
	mux.Handle("POST /v1/orders/hash", s.instrument("hash_order", http.HandlerFunc(s.handleHashOrder)))
	mux.Handle("POST /v1/sign", s.instrument("sign", http.HandlerFunc(s.handleSign)))
	mux.Handle("POST /v1/verify", s.instrument("verify", http.HandlerFunc(s.handleVerify)))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return withRequestID(mux)
}

// Handler returns the root handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      2 * s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("perpsign service listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("chain_id", s.cfg.ChainID),
		zap.Strings("endpoints", []string{
			"POST /v1/keys/derive",
			"POST /v1/orders/hash",
			"POST /v1/sign",
			"POST /v1/verify",
			"GET /health",
			"GET /metrics",
		}),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on cfg.ListenAddr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// instrument records request metrics and logs each request without its body.
func (s *Server) instrument(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		s.metrics.HTTPRequests.WithLabelValues(endpoint, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(endpoint, r.Method).Observe(duration.Seconds())

		s.logger.Debug("request handled",
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID(r)),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", duration),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

// withRequestID propagates a caller-supplied UUID request id or assigns a
// fresh one, and echoes it in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.RegisterValidation("felthex", func(fl validator.FieldLevel) bool {
		return shared.IsValidFeltHex(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register felthex validation: %v", err))
	}

	return validate
}
