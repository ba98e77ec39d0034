// Package server exposes the scan pipeline over HTTP: a multipart scan
// endpoint, a websocket stream, health and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anvik-systems/payqr/internal/config"
	"github.com/anvik-systems/payqr/internal/scanner"
)

// Server wraps an http.Server around a shared Scanner.
type Server struct {
	cfg     config.ServerConfig
	scanner *scanner.Scanner
	httpSrv *http.Server
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, s *scanner.Scanner) *Server {
	srv := &Server{cfg: cfg, scanner: s}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /scan", srv.handleScan)
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ws", srv.handleWS)

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	srv.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      logRequests(mux),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	return srv
}

// ListenAndServe blocks serving requests until Shutdown or a fatal error.
func (s *Server) ListenAndServe() error {
	slog.Info("server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// handleScan accepts an image, either as a multipart "image" field or as a
// raw request body, and returns the scan result as JSON.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	maxBytes := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	data, err := readImagePayload(r)
	if err != nil {
		scansTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.scanner.ScanBytes(data)
	if err != nil {
		scansTotal.WithLabelValues("undecodable").Inc()
		http.Error(w, "could not decode image", http.StatusUnprocessableEntity)
		return
	}

	scansTotal.WithLabelValues("ok").Inc()
	scanDuration.Observe(time.Since(start).Seconds())
	recordResultMetrics(result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readImagePayload pulls the image bytes from a multipart form when present,
// otherwise from the raw body.
func readImagePayload(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if len(contentType) >= 19 && contentType[:19] == "multipart/form-data" {
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("missing multipart field %q: %w", "image", err)
		}
		defer func() { _ = file.Close() }()
		return io.ReadAll(file)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty request body")
	}
	return data, nil
}

func recordResultMetrics(result *scanner.Result) {
	codesDecoded.Add(float64(len(result.QRCodes)))
	for _, code := range result.QRCodes {
		if code.Payment != nil {
			paymentsParsed.Inc()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing response", "error", err)
	}
}

// logRequests is the slog access-log middleware.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
