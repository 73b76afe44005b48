package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/waqasmustafa/social-media-outreach/internal/ai"
	"github.com/waqasmustafa/social-media-outreach/internal/config"
	"github.com/waqasmustafa/social-media-outreach/internal/outreach"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	// --- DB ---
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db open error")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("db ping error")
	}
	if err := outreach.Migrate(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("db migrate error")
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// --- Outreach module wiring ---
	requestStore := outreach.NewRequestStore(db)
	logStore := outreach.NewLogStore(db)
	settingsStore := outreach.NewSettingsStore(db)
	assistant := ai.NewClient(logger)
	webhook := outreach.NewWebhookRelay()
	svc := outreach.NewService(requestStore, logStore, settingsStore, assistant, webhook, logger)
	handler := outreach.NewHandler(svc)

	outreach.RegisterRoutes(r, handler)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	logger.Info().Str("port", cfg.Port).Msg("listening")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
