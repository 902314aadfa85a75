package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lamumu/trivia/internal/client"
	"github.com/lamumu/trivia/internal/fallback"
	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/words"
)

type Config struct {
	server        string
	dataDir       string
	limit         int
	deal          string
	preRevealHint bool
	noAutoAdvance bool
	verbose       bool
}

func (c *Config) validate() error {
	if c.server != "" {
		u, err := url.Parse(c.server)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid server url (must be http or https): %q", c.server)
		}
	}
	if c.dataDir == "" {
		return errors.New("--data-dir must not be empty")
	}
	if _, err := words.New(nil).Dealer(c.deal); err != nil {
		return err
	}
	if c.limit < 1 || c.limit > leaderboard.MaxLimit {
		return fmt.Errorf("invalid limit (must be between 1-%d inclusive): %d", leaderboard.MaxLimit, c.limit)
	}
	return nil
}

// recorder wires the remote leaderboard (if any) in front of the local log.
func (c *Config) recorder() (*fallback.Recorder, error) {
	local := fallback.Open(c.dataDir)
	if c.server == "" {
		return fallback.NewRecorder(nil, local), nil
	}
	remote, err := client.New(c.server)
	if err != nil {
		return nil, err
	}
	return fallback.NewRecorder(remote, local), nil
}

func setupLogging(verbose bool) {
	lvl := zerolog.WarnLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "lamumu"
	}
	return "./data"
}

func newCmd(cfg *Config) *cobra.Command {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LAMUMU")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "lamumu",
		Short:         "Lamumu trivia: guess the word, keep the streak, gmoo.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg.verbose)
			return cfg.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.server, "server", "s", "", "leaderboard server url, empty for local-only play (env: LAMUMU_SERVER)")
	fs.StringVarP(&cfg.dataDir, "data-dir", "d", defaultDataDir(), "directory for the local run log (env: LAMUMU_DATA_DIR)")
	fs.IntVarP(&cfg.limit, "limit", "n", leaderboard.DefaultLimit, "leaderboard entries to show (env: LAMUMU_LIMIT)")
	fs.StringVar(&cfg.deal, "deal", words.DealDeck, "deal mode: deck (no repeats) or random (env: LAMUMU_DEAL)")
	fs.BoolVar(&cfg.preRevealHint, "pre-reveal-hint", false, "show the first hint when a round starts (env: LAMUMU_PRE_REVEAL_HINT)")
	fs.BoolVar(&cfg.noAutoAdvance, "no-auto-advance", false, "wait for :next after each round (env: LAMUMU_NO_AUTO_ADVANCE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LAMUMU_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newPlayCmd(cfg), newLeaderboardCmd(cfg), newResetLocalCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("lamumu v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newPlayCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a session in the terminal (default command)",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newLeaderboardCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"top"},
		Short:   "Show the leaderboard (local runs when the server is unreachable)",
		Args:    cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := cfg.recorder()
			if err != nil {
				return err
			}
			return printLeaderboard(cmd.Context(), cmd.OutOrStdout(), rec, cfg.limit)
		},
	}
}

func newResetLocalCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-local",
		Short: "Delete the local run log",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := fallback.Open(cfg.dataDir).Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Local leaderboard reset.")
			return nil
		},
	}
}
