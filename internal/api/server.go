// Package api exposes the indicator service over HTTP and WebSocket.
package api

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/metrics"
	"github.com/rxtech-lab/argo-indicators/internal/service"
	"github.com/rxtech-lab/argo-indicators/internal/version"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Server serves computed indicator series to charting clients.
type Server struct {
	service    *service.Service
	metrics    *metrics.Metrics
	logger     *logger.Logger
	upgrader   websocket.Upgrader
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a Server and registers its routes.
func NewServer(svc *service.Service, m *metrics.Metrics, logger *logger.Logger) *Server {
	s := &Server{
		service: svc,
		metrics: m,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}

	router := mux.NewRouter()
	router.Use(s.observe)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/v1/indicators", s.handleCompute).Methods(http.MethodPost)
	router.HandleFunc("/v1/symbols", s.handleSymbols).Methods(http.MethodGet)
	router.HandleFunc("/v1/symbols/{symbol}/indicators", s.handleSymbolIndicators).Methods(http.MethodGet)
	router.HandleFunc("/v1/ws", s.handleWebSocket)

	s.router = router

	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on listener until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.httpServer.Serve(listener)
	}()

	s.logger.Info("API server listening", zap.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return nil
	}
}

// ListenAndServe listens on address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}

	r.status = http.StatusSwitchingProtocols

	return hijacker.Hijack()
}

// observe tags each request with an id, logs it and counts it by route template.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}

		s.metrics.RecordHTTPRequest(route, recorder.status)
		s.logger.Debug("HTTP request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}
