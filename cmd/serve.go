package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/salarylens/salarylens/internal/model"
	"github.com/salarylens/salarylens/internal/pipeline"
	"github.com/salarylens/salarylens/internal/predict"
)

var (
	servePort    int
	serveCSVPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve salary statistics and predictions over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		path := serveCSVPath
		if path == "" {
			path = cfg.Dataset.Path
		}
		pred, pd, err := readyPredictor(ctx, e, path, epochLogger())
		if err != nil {
			return err
		}

		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
		api := &apiServer{
			pipeline:  e.Pipeline,
			predictor: pred,
			stats:     pd.Stats,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.router(limiter),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiServer exposes the pipeline over HTTP. The predictor and stats
// are read-only for the server's lifetime; clearing the cache takes
// effect on the next start.
type apiServer struct {
	pipeline  *pipeline.Pipeline
	stats     model.StatTables
	predictor *predict.Predictor
}

func (a *apiServer) router(limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(rateLimit(limiter))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/stats", a.handleStats)
	r.Get("/api/model", a.handleModelInfo)
	r.Post("/api/predict", a.handlePredict)
	r.Post("/api/predict/batch", a.handlePredictBatch)
	r.Delete("/api/cache", a.handleCacheClear)
	return r
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *apiServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.stats)
}

func (a *apiServer) handleModelInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.predictor.Metadata())
}

// profileRequest is one job profile to price.
type profileRequest struct {
	WorkYear        int    `json:"work_year"`
	ExperienceLevel string `json:"experience_level"`
	EmploymentType  string `json:"employment_type"`
	JobTitle        string `json:"job_title"`
	CompanySize     string `json:"company_size"`
	RemoteRatio     int    `json:"remote_ratio"`
}

func (p profileRequest) record() model.JobRecord {
	return model.JobRecord{
		WorkYear:        p.WorkYear,
		ExperienceLevel: p.ExperienceLevel,
		EmploymentType:  p.EmploymentType,
		JobTitle:        p.JobTitle,
		CompanySize:     p.CompanySize,
		RemoteRatio:     p.RemoteRatio,
	}
}

func (a *apiServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pred := a.predictor
	out, err := pred.Predict(pred.EncodeProfile(req.record()))
	if err != nil {
		// A failed prediction is local to this request; the model
		// stays loaded.
		zap.L().Warn("serve: prediction failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profiles []profileRequest `json:"profiles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Profiles) == 0 {
		writeError(w, http.StatusBadRequest, "profiles is required")
		return
	}

	pred := a.predictor
	vectors := make([][]float64, len(req.Profiles))
	for i, p := range req.Profiles {
		vectors[i] = pred.EncodeProfile(p.record())
	}

	out, err := pred.PredictBatch(vectors)
	if err != nil {
		zap.L().Warn("serve: batch prediction failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Prediction{"predictions": out})
}

func (a *apiServer) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := a.pipeline.ClearCache(r.Context()); err != nil {
		zap.L().Error("serve: cache clear failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cache clear failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveCSVPath, "csv", "", "dataset path (default from config)")
	rootCmd.AddCommand(serveCmd)
}
