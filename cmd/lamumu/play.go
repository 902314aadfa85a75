package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lamumu/trivia/internal/fallback"
	"github.com/lamumu/trivia/internal/game"
	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/words"
)

const namePrompt = "Enter a name for the leaderboard: (default " + leaderboard.DefaultName + ")"

// player connects one controller to a line-oriented terminal.
type player struct {
	ctrl       *game.Controller
	rec        *fallback.Recorder
	rounds     int
	guessLimit int
	limit      int

	mu  sync.Mutex // guards out
	out io.Writer

	// endingEarly is set after :end until the name line arrives.
	endingEarly bool
}

func runPlay(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	bank, err := words.FromEnv()
	if err != nil {
		return err
	}
	dealer, err := bank.Dealer(cfg.deal)
	if err != nil {
		return err
	}
	rec, err := cfg.recorder()
	if err != nil {
		return err
	}

	gcfg := game.DefaultConfig()
	gcfg.PreRevealHint = cfg.preRevealHint
	gcfg.AutoAdvance = !cfg.noAutoAdvance
	gcfg.StartGated = true

	p := newPlayer(gcfg, dealer, rec, out, cfg.limit)
	return p.run(ctx, in)
}

func newPlayer(cfg game.Config, dealer game.Dealer, rec *fallback.Recorder, out io.Writer, limit int) *player {
	ctrl := game.NewController("terminal", cfg, dealer, rec)
	snap := ctrl.Snapshot()
	return &player{
		ctrl:       ctrl,
		rec:        rec,
		rounds:     snap.Rounds,
		guessLimit: snap.Limit,
		limit:      limit,
		out:        out,
	}
}

// run starts a session and feeds it lines from in until EOF, :quit or ctx
// is done.
func (p *player) run(ctx context.Context, in io.Reader) error {
	events, cancel := p.ctrl.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range events {
			p.render(ctx, e)
		}
	}()

	p.printf("Welcome to Lamumu trivia! Type a guess, or :help for commands.\n")
	p.printLeaderboard(ctx)
	p.ctrl.Start()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				p.saveFinished()
				break loop
			}
			if p.handleLine(line) {
				break loop
			}
		}
	}

	// Close waits for pending recordings and ends the event stream.
	p.ctrl.Close()
	wg.Wait()
	return nil
}

// saveFinished saves a completed session still waiting for a name under the
// default name.
func (p *player) saveFinished() {
	if p.ctrl.Snapshot().Phase != game.PhaseSessionFinalizing {
		return
	}
	if _, err := p.ctrl.Finalize(""); err != nil {
		p.printf("%v\n", err)
	}
}

// handleLine interprets one input line and reports whether to quit.
func (p *player) handleLine(line string) bool {
	line = strings.TrimSpace(line)

	if p.endingEarly {
		p.endingEarly = false
		if run, err := p.ctrl.EndEarly(line); err == nil {
			p.printf("Session saved early! Score: %d\n", run.Score)
		}
		return false
	}
	if p.ctrl.Snapshot().Phase == game.PhaseSessionFinalizing && !strings.HasPrefix(line, ":") {
		if _, err := p.ctrl.Finalize(line); err != nil {
			p.printf("%v\n", err)
		}
		return false
	}

	switch line {
	case ":quit", ":q":
		p.saveFinished()
		p.printf("gmoo!\n")
		return true
	case ":help", ":h":
		p.printf("Commands: :next (next round) :end (save and restart) :start :top :reset :quit\n")
	case ":next", ":n":
		if ok, _ := p.ctrl.Advance(); !ok {
			p.printf("Finish this round first.\n")
		}
	case ":start":
		p.ctrl.Start()
	case ":end":
		if p.ctrl.Snapshot().Phase == game.PhaseAwaitingStart {
			p.printf("No session in progress. Type :start to begin.\n")
			return false
		}
		p.endingEarly = true
		p.printf("%s\n", namePrompt)
	case ":top":
		p.printLeaderboard(context.Background())
	case ":reset":
		if err := p.rec.Local.Reset(); err != nil {
			p.printf("Could not reset the local leaderboard: %v\n", err)
			return false
		}
		p.printf("Local leaderboard reset.\n")
	default:
		if strings.HasPrefix(line, ":") {
			p.printf("Unknown command %s. Type :help.\n", line)
			return false
		}
		p.ctrl.Guess(line)
	}
	return false
}

// render prints one event.
func (p *player) render(ctx context.Context, e game.Event) {
	switch e.Kind {
	case game.EventRoundStarted:
		p.printf("\nRound %d/%d · Score %d · Streak %d · Used %d/%d\n",
			e.Round, p.rounds, e.Score, e.Streak, e.Used, p.guessLimit)
		p.printf("Category: %s\n", e.Category)
		if e.Hint != "" {
			p.printf("Hint: %s\n", e.Hint)
		}
	case game.EventWin:
		p.printf("GMOOO! You nailed it: %s 🐄  (+%d)\n", e.Secret, e.Points)
	case game.EventClose:
		p.printf("So close! gmoo‑ve again, you’ve almost got it. 🐄 (%d/%d)\n", e.Used, p.guessLimit)
	case game.EventMiss:
		p.printf("Nope. (%d/%d)\n", e.Used, p.guessLimit)
	case game.EventHint:
		p.printf("Hint: %s\n", e.Hint)
	case game.EventLose:
		p.printf("Out of guesses! The answer was %s. gmoo next time 🐄\n", e.Secret)
	case game.EventSessionComplete:
		p.printf("\nSession complete! Score: %d · Streak %d\n%s\n", e.Score, e.Streak, namePrompt)
	case game.EventStartRequired:
		p.printf("Type :start to begin a new session.\n")
	case game.EventRunRecorded:
		switch fallback.Destination(e.Destination) {
		case fallback.Remote:
			p.printf("Run saved to the leaderboard.\n")
		case fallback.Local:
			p.printf("Run saved locally.\n")
		default:
			p.printf("Could not save the run.\n")
		}
		p.printLeaderboard(ctx)
	}
}

func (p *player) printLeaderboard(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = printLeaderboard(ctx, p.out, p.rec, p.limit)
}

func (p *player) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// printLeaderboard writes the top runs, local ones when the server is
// unreachable.
func printLeaderboard(ctx context.Context, out io.Writer, rec *fallback.Recorder, limit int) error {
	entries, fromLocal, err := rec.Top(ctx, limit)
	if err != nil {
		fmt.Fprintf(out, "Leaderboard unavailable: %v\n", err)
		return err
	}
	title := "Leaderboard"
	if fromLocal {
		title = "Local runs"
	}
	fmt.Fprintf(out, "%s:\n", title)
	if len(entries) == 0 {
		fmt.Fprintln(out, "No runs yet. Be the first!")
		return nil
	}
	for i, e := range entries {
		if e.Run == nil {
			fmt.Fprintf(out, "%2d. %s\n", i+1, e.Raw)
			continue
		}
		fmt.Fprintf(out, "%2d. %s  %d pts · streak %d", i+1, e.Run.Name, e.Run.Score, e.Run.Streak)
		if e.Run.Date != "" {
			fmt.Fprintf(out, " · %s", e.Run.Date)
		}
		fmt.Fprintln(out)
	}
	return nil
}
