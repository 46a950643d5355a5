package daemon

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

	"mupacs/internal/api"
	"mupacs/internal/config"
	"mupacs/internal/ingest"
	"mupacs/internal/logging"
	"mupacs/internal/metrics"
	"mupacs/internal/query"
)

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	importSvc *api.ImportService
	querySvc  *api.QueryService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger, mets *metrics.Metrics) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:      bind,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
		importSvc: api.NewImportService(d.registry),
		querySvc:  api.NewQueryService(d.store),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/imports", srv.handleImports)
	mux.HandleFunc("/api/imports/cleanup", srv.handleImportsCleanup)
	mux.HandleFunc("/api/query/", srv.handleQuery)
	mux.Handle("/metrics", mets.Handler())

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", "address", listener.Addr().String())
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		StorePath:    status.StorePath,
		LockFilePath: status.LockFilePath,
		Counts: api.ArchiveCounts{
			Patients:  status.Counts.Patients,
			Studies:   status.Counts.Studies,
			Series:    status.Counts.Series,
			Instances: status.Counts.Instances,
		},
		Imports: status.Imports,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleImports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, api.ImportListResponse{Jobs: s.importSvc.List()})
	case http.MethodPost:
		var req api.ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		job, err := s.importSvc.Add(req.Path)
		switch {
		case errors.Is(err, ingest.ErrInvalidPath):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case err != nil:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		default:
			// Accepted whether the job is new or the path was already
			// tracked; either way the returned job is the live one.
			s.writeJSON(w, http.StatusAccepted, job)
		}
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleImportsCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	removed := s.importSvc.Cleanup()
	s.writeJSON(w, http.StatusOK, api.ImportCleanupResponse{Removed: removed})
}

// queryLevels maps the URL path segment to the hierarchy level.
var queryLevels = map[string]query.Level{
	"patients": query.LevelPatient,
	"studies":  query.LevelStudy,
	"series":   query.LevelSeries,
	"images":   query.LevelImage,
}

func (s *apiServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	segment := strings.TrimPrefix(r.URL.Path, "/api/query/")
	level, ok := queryLevels[segment]
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown query level")
		return
	}

	keys := make(query.Keys, len(r.URL.Query()))
	for field, values := range r.URL.Query() {
		if len(values) > 0 {
			keys[field] = values[0]
		}
	}

	matches, err := s.querySvc.Query(r.Context(), level, keys)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueryResponse{Matches: matches})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
