// Package dashboard serves a small read-only admin view on localhost,
// proxying the backend admin API so the operator's browser never needs
// direct access to the survey backend.
package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lolahq/lola/internal/config"
	"github.com/lolahq/lola/pkg/api"
)

//go:embed index.html
var indexHTML []byte

// Server hosts the dashboard. The backend client can be swapped at runtime
// when the watched config file changes its base URL.
type Server struct {
	mu      sync.RWMutex
	client  *api.Client
	addr    string
	cfgPath string
	logger  zerolog.Logger
}

func New(client *api.Client, addr, cfgPath string, logger zerolog.Logger) *Server {
	return &Server{
		client:  client,
		addr:    addr,
		cfgPath: cfgPath,
		logger:  logger.With().Str("component", "dashboard").Logger(),
	}
}

func (s *Server) backend() *api.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Routes builds the dashboard router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})

	r.Get("/api/responses", func(w http.ResponseWriter, req *http.Request) {
		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(req.URL.Query().Get("per_page"))
		resp, err := s.backend().ListResponses(req.Context(), page, perPage)
		if err != nil {
			s.proxyError(w, err)
			return
		}
		s.writeJSON(w, resp)
	})

	r.Get("/api/response/{id}", func(w http.ResponseWriter, req *http.Request) {
		detail, err := s.backend().GetResponse(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			s.proxyError(w, err)
			return
		}
		s.writeJSON(w, detail)
	})

	r.Get("/api/export", func(w http.ResponseWriter, req *http.Request) {
		blob, err := s.backend().ExportCSV(req.Context())
		if err != nil {
			s.proxyError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="responses.csv"`)
		_, _ = w.Write(blob)
	})

	return r
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.cfgPath != "" {
		go s.watchConfig(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", s.addr).Msg("Dashboard listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// watchConfig re-points the backend client when the config file changes.
func (s *Server) watchConfig(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Config watch unavailable")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(s.cfgPath); err != nil {
		s.logger.Warn().Err(err).Str("path", s.cfgPath).Msg("Could not watch config file")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("Config watch error")
		}
	}
}

func (s *Server) reload() {
	cfg, err := config.Load(s.cfgPath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Config reload failed")
		return
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("Reloaded config is invalid, keeping previous backend")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client.BaseURL() == cfg.API.BaseURL {
		return
	}
	s.client = api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, s.logger)
	s.logger.Info().Str("base_url", cfg.API.BaseURL).Msg("Backend re-pointed")
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Response encode failed")
	}
}

// proxyError maps client errors onto the proxy response, passing server
// status codes through where known.
func (s *Server) proxyError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": api.Message(err, "backend unavailable")})
}
