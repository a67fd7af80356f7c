package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/heartbeat"
	apimw "github.com/hamed0406/prommonitor/internal/httpapi/middleware"
	"github.com/hamed0406/prommonitor/internal/metrics"
	"github.com/hamed0406/prommonitor/internal/repo"
)

type Server struct {
	Logger   *zap.Logger
	Recorder *heartbeat.Recorder
	Clusters repo.ClusterRegistry
	Metrics  *metrics.Metrics
	now      func() time.Time
}

func NewServer(l *zap.Logger, rec *heartbeat.Recorder, clusters repo.ClusterRegistry, m *metrics.Metrics) *Server {
	return &Server{Logger: l, Recorder: rec, Clusters: clusters, Metrics: m, now: time.Now}
}

// Router wires the heartbeat endpoint, the status API and ops endpoints.
// Zero rpm disables the matching limiter.
func (s *Server) Router(keys apimw.Keys, origins []string, hbRPM, hbBurst, apiRPM, apiBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.Metrics.Handler())

	r.With(apimw.RateLimit(hbRPM, hbBurst)).
		Post("/heartbeat/{cluster_name}", s.handleHeartbeat)

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(apiRPM, apiBurst))
		r.With(apimw.RequireAny(keys)).Get("/clusters", s.handleListClusters)
		r.With(apimw.RequireAdmin(keys)).Delete("/clusters/{cluster_name}", s.handleDeleteCluster)
	})

	return r
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	cluster := chi.URLParam(r, "cluster_name")
	token := r.URL.Query().Get("verify_token")

	ts, err := s.Recorder.Record(r.Context(), cluster, token)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Wrong verification token", http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrInvalidClusterName):
		http.Error(w, "missing cluster name", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "could not record heartbeat", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strconv.FormatInt(ts, 10)))
}

type clusterView struct {
	ClusterName      string `json:"cluster_name"`
	LastSeen         int64  `json:"last_seen"`
	AlertActive      bool   `json:"alert_active"`
	StalenessSeconds int64  `json:"staleness_seconds"`
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	all, err := s.Clusters.GetAll(r.Context())
	if err != nil {
		s.Logger.Error("list_clusters_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	now := s.now()
	out := make([]clusterView, 0, len(all))
	for _, c := range all {
		out = append(out, clusterView{
			ClusterName:      c.ClusterName,
			LastSeen:         c.LastSeen,
			AlertActive:      c.AlertActive,
			StalenessSeconds: c.Staleness(now),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleDeleteCluster(w http.ResponseWriter, r *http.Request) {
	cluster := chi.URLParam(r, "cluster_name")
	if err := s.Clusters.Delete(r.Context(), cluster); err != nil {
		s.Logger.Error("delete_cluster_error", zap.String("cluster", cluster), zap.Error(err))
		http.Error(w, "could not delete", http.StatusInternalServerError)
		return
	}
	s.Metrics.ForgetCluster(cluster)
	s.Logger.Info("cluster_deleted", zap.String("cluster", cluster))
	w.WriteHeader(http.StatusNoContent)
}
