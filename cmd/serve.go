package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
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
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lookup-bot/internal/bot"
	"github.com/sells-group/lookup-bot/internal/resilience"
)

const livenessText = "Bot is running!"

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the liveness server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env := initPipeline(cfg)

		tg, err := bot.NewTelegram(cfg.Telegram.Token)
		if err != nil {
			return err
		}
		handler := bot.NewHandler(tg, env.Enricher, env.Formatter)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildMux(env.Breakers),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting liveness server", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		// Graceful shutdown
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		g.Go(func() error {
			return tg.Run(gctx, handler)
		})

		return g.Wait()
	},
}

// buildMux serves the liveness endpoints polled by the hosting platform.
func buildMux(breakers *resilience.Breakers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}))

	alive := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, livenessText)
	}
	r.Get("/", alive)
	r.Head("/", alive)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if breakers != nil {
			states := map[string]string{}
			for source, s := range breakers.States() {
				states[source] = s.String()
			}
			body["breakers"] = states
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	})

	return r
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "liveness server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
