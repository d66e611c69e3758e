package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/nadyarudie/Web-Crawler/internal/crawler"
	"github.com/nadyarudie/Web-Crawler/internal/model"
	"github.com/nadyarudie/Web-Crawler/internal/pipeline"
	"github.com/nadyarudie/Web-Crawler/internal/report"
)

const (
	// ContentTypeNDJSON is the media type of the /scan event stream.
	ContentTypeNDJSON = "application/x-ndjson"

	// maxRequestBody bounds the /scan request body.
	maxRequestBody = 64 * 1024

	// shutdownTimeout is how long in-flight streams get to finish on shutdown.
	shutdownTimeout = 5 * time.Second
)

// errInvalidURL is the message returned for any unusable /scan request.
const errInvalidURL = "A valid URL is required"

// Server is the HTTP shell around the crawl pipeline.
type Server struct {
	// cfg supplies crawl settings and per-site overrides.
	cfg *config.Config

	// services are shared by every request.
	services *pipeline.Services

	mux    *http.ServeMux
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server. Completed crawls are archived when services carries
// an archive.
func New(cfg *config.Config, services *pipeline.Services, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		services: services,
		mux:      http.NewServeMux(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/scan", s.handleScan)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Request contexts derive from ctx, so running crawls are
// cancelled on shutdown and still finish their stream with a result event.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req model.CrawlRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.logger.Debug("rejecting scan request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidURL})
		return
	}
	seed := strings.TrimSpace(req.URL)
	if !crawler.IsValidURL(seed) {
		s.logger.Debug("rejecting scan request", "url", seed)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidURL})
		return
	}

	w.Header().Set("Content-Type", ContentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	stream := report.NewNDJSONWriter(w)
	opts := append(pipeline.ConfigOptions(s.cfg, seed), pipeline.WithPipelineEmit(stream.Emit))
	p := pipeline.DefaultPipeline(s.services, nil, opts...)

	rep := model.NewScanReport(seed)
	if err := p.Execute(r.Context(), rep); err != nil {
		// The status line is already sent; the stream itself carries the result.
		s.logger.Warn("scan ended with error", "seed", seed, "error", err)
		return
	}

	s.logger.Info("scan streamed",
		"seed", seed,
		"pages", rep.PagesCrawled,
		"cancelled", rep.Cancelled,
	)
}

func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) //nolint:errcheck // client went away
}
