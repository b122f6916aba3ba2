package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"marquee/internal/api"
	"marquee/internal/logging"
	"marquee/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	router := mux.NewRouter()
	router.Use(srv.requestID)
	root := router.PathPrefix("/api").Subrouter()
	root.HandleFunc("/status", srv.handleStatus).Methods(http.MethodGet)
	root.HandleFunc("/movies/trending", srv.handleTrending).Methods(http.MethodGet)
	root.HandleFunc("/movies/popular", srv.handlePopular).Methods(http.MethodGet)
	root.HandleFunc("/movies/search", srv.handleSearch).Methods(http.MethodGet)
	root.HandleFunc("/movies/{tmdbID:[0-9]+}", srv.handleDetail).Methods(http.MethodGet)
	root.HandleFunc("/genres", srv.handleGenres).Methods(http.MethodGet)
	root.HandleFunc("/genres/{genreID:[0-9]+}/movies", srv.handleGenreMovies).Methods(http.MethodGet)
	root.HandleFunc("/sync", srv.handleSync).Methods(http.MethodPost)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// requestID stamps every request with a correlation id that flows through
// the catalog pipeline into the logs.
func (s *apiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleTrending(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	result, hit, err := s.daemon.catalog.Trending(r.Context(), r.URL.Query().Get("window"), page)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.writeCached(w, hit, result)
}

func (s *apiServer) handlePopular(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	result, hit, err := s.daemon.catalog.Popular(r.Context(), page)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.writeCached(w, hit, result)
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	result, hit, err := s.daemon.catalog.Search(r.Context(), r.URL.Query().Get("query"), page)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.writeCached(w, hit, result)
}

func (s *apiServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := int64Var(r, "tmdbID")
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	result, hit, err := s.daemon.catalog.Detail(r.Context(), tmdbID)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.writeCached(w, hit, result)
}

func (s *apiServer) handleGenres(w http.ResponseWriter, r *http.Request) {
	result, hit, err := s.daemon.catalog.Genres(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.writeCached(w, hit, result)
}

func (s *apiServer) handleGenreMovies(w http.ResponseWriter, r *http.Request) {
	genreID, err := int64Var(r, "genreID")
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	result, hit, err := s.daemon.catalog.ByGenre(r.Context(), genreID, page)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.writeCached(w, hit, result)
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	run, err := s.daemon.refresher.Sync(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SyncResponse{Run: *convertRun(run)})
}

func pageParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, services.Wrap(services.ErrValidation, "api", "parse", fmt.Sprintf("invalid page %q", raw), nil)
	}
	return page, nil
}

func int64Var(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 1 {
		return 0, services.Wrap(services.ErrValidation, "api", "parse", fmt.Sprintf("invalid %s %q", name, raw), nil)
	}
	return value, nil
}

func (s *apiServer) writeCached(w http.ResponseWriter, hit bool, payload any) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	s.writeJSON(w, http.StatusOK, payload)
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

// writeCatalogError maps the error taxonomy onto HTTP status codes so
// clients can tell not-found from upstream-unavailable.
func (s *apiServer) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			logging.String("path", r.URL.Path),
			logging.Int(logging.FieldStatus, status),
			logging.Error(err))
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error(), Kind: kind})
}

func classifyError(err error) (int, string) {
	switch {
	case services.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case services.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case services.IsConflict(err):
		return http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case services.IsUpstream(err):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
