package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"hang-in-there/internal/cms"
	"hang-in-there/internal/metrics"
	"hang-in-there/internal/story"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StoryService is the read side of the CMS the API exposes.
type StoryService interface {
	ListStories(ctx context.Context, f story.Filters) cms.Result[story.Page]
	GetDailyStory(ctx context.Context, timezone string) cms.Result[story.Story]
	GetStoryByID(ctx context.Context, id string) cms.Result[story.Story]
	CheckHealth(ctx context.Context) cms.Result[cms.Health]
}

type handler struct {
	stories StoryService
}

// NewRouter wires the story endpoints, liveness and metrics. m and gatherer
// may be nil to run without instrumentation.
func NewRouter(stories StoryService, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{stories: stories}

	r := mux.NewRouter()
	r.Use(requestID, accessLog(logger))
	if m != nil {
		r.Use(instrument(m))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if gatherer != nil {
		r.Handle("/metrics", metrics.Handler(gatherer)).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stories", h.listStories).Methods(http.MethodGet)
	api.HandleFunc("/stories/daily", h.dailyStory).Methods(http.MethodGet)
	api.HandleFunc("/stories/{id}", h.storyByID).Methods(http.MethodGet)
	api.HandleFunc("/health", h.cmsHealth).Methods(http.MethodGet)

	return r
}

// Server is a running HTTP server. Err delivers at most one error if serving
// stops for any reason other than Shutdown.
type Server struct {
	srv  *http.Server
	addr string
	errs chan error
}

// Start binds addr and serves handler in the background. A bind failure is
// returned directly.
func Start(addr string, handler http.Handler, logger *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr: ln.Addr().String(),
		errs: make(chan error, 1),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", s.addr))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
			s.errs <- err
		}
		close(s.errs)
	}()

	return s, nil
}

// Addr is the bound address, with the real port when addr asked for :0.
func (s *Server) Addr() string { return s.addr }

func (s *Server) Err() <-chan error { return s.errs }

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (h *handler) listStories(w http.ResponseWriter, r *http.Request) {
	f, apiErr := filtersFromQuery(r.URL.Query())
	if apiErr != nil {
		writeResult(w, cms.Fail[story.Page](apiErr))
		return
	}
	writeResult(w, h.stories.ListStories(r.Context(), f))
}

func (h *handler) dailyStory(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.stories.GetDailyStory(r.Context(), r.URL.Query().Get("timezone")))
}

func (h *handler) storyByID(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.stories.GetStoryByID(r.Context(), mux.Vars(r)["id"]))
}

func (h *handler) cmsHealth(w http.ResponseWriter, r *http.Request) {
	res := h.stories.CheckHealth(r.Context())
	if res.Success && !res.Data.Available {
		writeJSON(w, http.StatusServiceUnavailable, res)
		return
	}
	writeResult(w, res)
}

func writeResult[T any](w http.ResponseWriter, res cms.Result[T]) {
	status := http.StatusOK
	if !res.Success {
		status = statusFor(res.Error)
	}
	writeJSON(w, status, res)
}

// statusFor keeps remote HTTP statuses and maps transport failures, which
// carry status 0, onto gateway errors.
func statusFor(e *cms.APIError) int {
	if e == nil {
		return http.StatusInternalServerError
	}
	if e.StatusCode >= 400 && e.StatusCode <= 599 {
		return e.StatusCode
	}
	switch e.Code {
	case cms.CodeTimeoutError:
		return http.StatusGatewayTimeout
	case cms.CodeCMSUnavailable:
		return http.StatusServiceUnavailable
	case cms.CodeNetworkError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
