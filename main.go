package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/assets"
	"github.com/lamumu/trivia/internal/daily"
	"github.com/lamumu/trivia/internal/database"
	"github.com/lamumu/trivia/internal/fallback"
	"github.com/lamumu/trivia/internal/game"
	"github.com/lamumu/trivia/internal/httpserver"
	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/store"
	"github.com/lamumu/trivia/internal/words"
)

func main() {
	cfg := loadConfig()
	setupLogging()

	bank, err := words.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word bank")
	}
	dealer, err := bank.Dealer(cfg.DealMode)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DEAL_MODE")
	}
	log.Info().Int("entries", bank.Len()).Str("deal", cfg.DealMode).Msg("word bank loaded")

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	migrations, err := assets.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migrations")
	}
	if err := database.Migrate(db, migrations); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	dailyStore := daily.NewStore(db)
	board := leaderboard.NewBoard(leaderboard.NewSQLStore(db, cfg.LeaderboardKey))

	gameCfg := game.DefaultConfig()
	gameCfg.AutoRestart = cfg.AutoRestart
	gameCfg.StartGated = cfg.StartGated
	gameCfg.PreRevealHint = cfg.PreRevealHint

	srv := httpserver.New(httpserver.Deps{
		Board:       board,
		Sessions:    store.NewMemoryStore(),
		Dealer:      dealer,
		Recorder:    fallback.NewRecorder(board, fallback.Open(cfg.FallbackDir)),
		DailyDealer: daily.NewDealer(bank, cfg.DailySalt),
		DailyStore:  dailyStore,
	}, httpserver.Options{
		Game:           gameCfg,
		ClientOrigin:   cfg.ClientOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		IdleTimeout:    cfg.IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", cfg.Port).Str("db", cfg.DBPath).Msg("starting lamumu server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
