package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/ingest"
	"github.com/sells-group/leadflow/pkg/apify"
	"github.com/sells-group/leadflow/pkg/engagement"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  "Listens for scraping platform run notifications and processes completed runs asynchronously.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if cfg.Apify.Token == "" {
			return eris.New("apify token is required (LEADFLOW_APIFY_TOKEN)")
		}
		platform := apify.NewClient(cfg.Apify.Token,
			apify.WithBaseURL(cfg.Apify.BaseURL),
			apify.WithPageSize(cfg.Apify.PageSize),
		)

		var trigger engagement.Trigger
		if cfg.Engagement.WebhookURL != "" {
			trigger = engagement.NewWebhook(cfg.Engagement.WebhookURL)
		} else {
			zap.L().Warn("engagement webhook URL not set, lead import notifications disabled")
		}

		pipeline := ingest.NewPipeline(st, platform, trigger)
		router := buildRouter(pipeline.Handler(ctx))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		go awaitShutdown(ctx, srv)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// shutdownGrace bounds how long in-flight requests get to finish on
// SIGINT/SIGTERM before the server is torn down.
const shutdownGrace = 10 * time.Second

// awaitShutdown blocks until ctx is canceled, then drains the server. The
// drain gets its own context: the signal context is already dead by then.
func awaitShutdown(ctx context.Context, srv *http.Server) {
	<-ctx.Done()
	zap.L().Info("shutting down server")

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
	}
}

// buildRouter assembles the HTTP routes around the webhook handler.
func buildRouter(webhook http.HandlerFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Post("/webhook/apify", webhook)

	return r
}
