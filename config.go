package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// config is the server's environment, read once at startup.
type config struct {
	Port           string
	DBPath         string
	LeaderboardKey string
	FallbackDir    string
	ClientOrigin   string
	DailySalt      string
	DealMode       string
	RateLimitRPS   float64
	RateLimitBurst int
	IdleTimeout    time.Duration
	AutoRestart    bool
	StartGated     bool
	PreRevealHint  bool
}

func loadConfig() config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	return config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/lamumu.db"),
		LeaderboardKey: getEnv("LEADERBOARD_KEY", "lamumu:scores"),
		FallbackDir:    getEnv("FALLBACK_DIR", "./data"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		DealMode:       getEnv("DEAL_MODE", "deck"),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		IdleTimeout:    getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		AutoRestart:    getEnvBool("AUTO_RESTART", true),
		StartGated:     getEnvBool("START_GATED", false),
		PreRevealHint:  getEnvBool("PRE_REVEAL_HINT", false),
	}
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global logger.
func setupLogging() {
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if strings.EqualFold(getEnv("LOG_FORMAT", "json"), "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v, err := strconv.Atoi(getEnv(k, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnv(k, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(k string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(k, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(k, ""))
	if err != nil {
		return def
	}
	return v
}
