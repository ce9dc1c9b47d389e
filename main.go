package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/roulette/apps/go-server/internal/auth"
	"github.com/robalobadob/roulette/apps/go-server/internal/config"
	"github.com/robalobadob/roulette/apps/go-server/internal/database"
	"github.com/robalobadob/roulette/apps/go-server/internal/httpserver"
	"github.com/robalobadob/roulette/apps/go-server/internal/live"
	"github.com/robalobadob/roulette/apps/go-server/internal/metrics"
	"github.com/robalobadob/roulette/apps/go-server/internal/narration"
	"github.com/robalobadob/roulette/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.ApplyLogLevel()

	db, err := database.OpenAndMigrate(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	narrator := narration.New(cfg.Narration.Insults, time.Now().UnixNano())
	hub := live.New(cfg.ClientOrigin)
	go hub.Run(ctx)

	srv := httpserver.New(httpserver.Options{
		Store: store.NewMemoryStore(),
		DB:    db,
		Issuer: &auth.Issuer{
			Secret:     []byte(cfg.Auth.Secret),
			TTL:        time.Duration(cfg.Auth.ExpiresDays) * 24 * time.Hour,
			CookieName: cfg.Auth.CookieName,
			Secure:     cfg.Production,
		},
		Narrator:     narrator,
		Hub:          hub,
		Metrics:      metrics.NewGame(),
		Rules:        cfg.Game,
		ClientOrigin: cfg.ClientOrigin,
		DailySalt:    cfg.DailySalt,
	})

	if cfgPath != "" {
		go func() {
			err := config.Watch(ctx, cfgPath, func(c *config.Config) {
				srv.SetRules(c.Game)
				narrator.SetInsults(c.Narration.Insults)
			})
			if err != nil {
				log.Error().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Int("rounds", cfg.Game.Rounds).Msg("starting go-server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
