package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/som-monitor/internal/config"
	"github.com/sells-group/som-monitor/internal/som"
	"github.com/sells-group/som-monitor/internal/stats"
	"github.com/sells-group/som-monitor/internal/storage"
	"github.com/sells-group/som-monitor/internal/themes"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the SOM dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		files, err := storage.NewFiles(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		history, err := storage.NewHistory(cfg.Storage.HistoryDB)
		if err != nil {
			return err
		}
		defer history.Close()

		if err := history.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate history")
		}

		api := &apiServer{cfg: cfg, files: files, history: history}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.router(),
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

// apiServer exposes the latest survey snapshot and the history store
// over a read-only JSON API.
type apiServer struct {
	cfg     *config.Config
	files   *storage.Files
	history *storage.History
}

func (s *apiServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/som", s.handleSOM)
	r.Get("/api/trends/{brand}", s.handleTrends)
	r.Get("/api/narratives", s.handleNarratives)
	r.Get("/api/quality", s.handleQuality)

	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleSOM(w http.ResponseWriter, r *http.Request) {
	results, err := s.files.LoadResults(r.URL.Query().Get("file"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	report, err := som.BuildReport(results, s.cfg.Brands)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *apiServer) handleTrends(w http.ResponseWriter, r *http.Request) {
	brand := chi.URLParam(r, "brand")

	series, err := s.history.MentionRateSeries(r.Context(), brand)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(series) == 0 {
		writeError(w, http.StatusNotFound, eris.Errorf("no history for brand %q", brand))
		return
	}

	out := trendOutput{
		Brand:    brand,
		Series:   series,
		Velocity: stats.Velocity(series),
		Trend:    stats.DetectTrend(series, s.cfg.Stats.ConfidenceLevel),
	}
	if len(series) >= 2 {
		out.Change = stats.Change(series[len(series)-1], series[len(series)-2])
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleNarratives(w http.ResponseWriter, r *http.Request) {
	results, err := s.files.LoadResults(r.URL.Query().Get("file"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(results) == 0 {
		writeError(w, http.StatusNotFound, eris.New("no survey results available"))
		return
	}

	analyzer := themes.NewAnalyzer(s.cfg.Brands)
	narratives := analyzer.AnalyzeNarratives(analyzer.ExtractThemes(results))

	writeJSON(w, http.StatusOK, map[string]any{
		"narratives": narratives,
		"matrix":     themes.NarrativeMatrix(narratives),
	})
}

func (s *apiServer) handleQuality(w http.ResponseWriter, r *http.Request) {
	results, err := s.files.LoadResults(r.URL.Query().Get("file"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, stats.EvaluateDataQuality(len(results)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
