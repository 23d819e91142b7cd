package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/orgball2608/insta-story-player/internal/ingest"
	"github.com/orgball2608/insta-story-player/internal/metrics"
	"github.com/orgball2608/insta-story-player/pkg/config"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"go.uber.org/fx"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

const maxImportBody = 1 << 20

type importRequest struct {
	Stories []ingest.StoryInput `json:"stories"`
}

func newRouter(log logger.Logger, db Pinger, m *metrics.Metrics, importer ingest.Client) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthCheckHandler(log, db)).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/stories", importStoriesHandler(log, importer)).Methods(http.MethodPost)
	return r
}

func healthCheckHandler(log logger.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain")

		if err := db.Ping(ctx); err != nil {
			log.Warn("Health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}

		if _, err := w.Write([]byte("ok")); err != nil {
			log.Error("Failed to write response", "Error", err)
		}
	}
}

func importStoriesHandler(log logger.Logger, importer ingest.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody)).Decode(&req); err != nil {
			writeJSON(w, log, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		res, err := importer.Import(r.Context(), req.Stories)
		if err != nil {
			if errors.Is(err, ingest.ErrEmptyBatch) {
				writeJSON(w, log, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			log.Error("Story import failed", "error", err)
			writeJSON(w, log, http.StatusInternalServerError, map[string]string{"error": "import failed"})
			return
		}

		writeJSON(w, log, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to write response", "Error", err)
	}
}

func startHttpServer(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, db Pinger, m *metrics.Metrics, importer ingest.Client) {
	log = log.WithComponent("HTTP")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           newRouter(log, db, m, importer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("Starting server", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
