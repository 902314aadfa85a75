package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/words"
)

func testDeck(n int) []words.Entry {
	deck := make([]words.Entry, n)
	for i := range deck {
		deck[i] = words.Entry{
			Answer:   fmt.Sprintf("answer%02d", i+1),
			Category: "Test",
			Hints:    []string{"first", "second", "third"},
		}
	}
	return deck
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func startedSession(t *testing.T, rules Rules) *Session {
	t.Helper()
	s := NewSession(rules)
	if events := s.Start(testDeck(rules.Rounds)); len(events) != 2 {
		t.Fatalf("Start produced %d events, want 2", len(events))
	}
	return s
}

func TestSessionWinFirstGuess(t *testing.T) {
	s := startedSession(t, DefaultRules())

	outcome, events := s.Guess("ANSWER01")
	if outcome != OutcomeWin {
		t.Fatalf("outcome = %q, want win", outcome)
	}
	if len(events) != 1 || events[0].Points != 100 || events[0].Secret != "answer01" {
		t.Fatalf("unexpected win events %+v", events)
	}
	if s.Score != 100 || s.Streak != 1 || s.Phase != PhaseRoundResolved {
		t.Fatalf("score=%d streak=%d phase=%s", s.Score, s.Streak, s.Phase)
	}

	s.Advance()
	want := Snapshot{
		Phase:    PhaseRoundActive,
		Round:    2,
		Rounds:   DefaultRounds,
		Score:    100,
		Streak:   1,
		Limit:    DefaultGuessLimit,
		Category: "Test",
	}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Errorf("unexpected snapshot (-want +got)\n%s", diff)
	}
}

func TestSessionStreakBonus(t *testing.T) {
	s := startedSession(t, DefaultRules())
	s.Guess("answer01")
	s.Advance()
	s.Guess("nope")
	s.Guess("nope")
	_, events := s.Guess("answer02")
	// base 70 after two misses, +20 for the second win in a row
	if events[0].Points != 90 || s.Score != 190 || s.Streak != 2 {
		t.Fatalf("points=%d score=%d streak=%d", events[0].Points, s.Score, s.Streak)
	}
}

func TestSessionLoseAfterLimit(t *testing.T) {
	s := startedSession(t, DefaultRules())
	s.Streak = 3

	var last []Event
	for i := 0; i < DefaultGuessLimit; i++ {
		var outcome Outcome
		outcome, last = s.Guess("cow")
		if i < DefaultGuessLimit-1 && outcome != OutcomeMiss {
			t.Fatalf("guess %d outcome = %q, want miss", i, outcome)
		}
	}
	if got := last[len(last)-1]; got.Kind != EventLose || got.Secret != "answer01" {
		t.Fatalf("final event = %+v, want lose revealing answer01", got)
	}
	if s.Streak != 0 || !s.Round.Resolved || s.Round.Won {
		t.Fatalf("streak=%d resolved=%v won=%v", s.Streak, s.Round.Resolved, s.Round.Won)
	}
	if outcome, _ := s.Guess("answer01"); outcome != OutcomeIgnored {
		t.Fatalf("guess on resolved round = %q, want ignored", outcome)
	}

	s.Advance()
	if s.RoundIndex != 2 || s.Phase != PhaseRoundActive || s.Round.WrongCount != 0 {
		t.Fatalf("round=%d phase=%s wrong=%d", s.RoundIndex, s.Phase, s.Round.WrongCount)
	}
}

func TestSessionCloseGuessHidesHint(t *testing.T) {
	s := startedSession(t, DefaultRules())

	outcome, events := s.Guess("answer0")
	if outcome != OutcomeClose {
		t.Fatalf("outcome = %q, want close", outcome)
	}
	if diff := cmp.Diff([]EventKind{EventClose}, kinds(events)); diff != "" {
		t.Errorf("unexpected events (-want +got)\n%s", diff)
	}
	if s.Round.WrongCount != 1 || s.Round.Hint() != "" {
		t.Fatalf("wrong=%d hint=%q", s.Round.WrongCount, s.Round.Hint())
	}
}

func TestSessionCloseGuessAtLimitLoses(t *testing.T) {
	s := startedSession(t, DefaultRules())
	s.Streak = 2
	for i := 0; i < DefaultGuessLimit-1; i++ {
		s.Guess("cow")
	}

	outcome, events := s.Guess("answer0")
	if outcome != OutcomeLose {
		t.Fatalf("outcome = %q, want lose", outcome)
	}
	if diff := cmp.Diff([]EventKind{EventClose, EventLose}, kinds(events)); diff != "" {
		t.Errorf("unexpected events (-want +got)\n%s", diff)
	}
	if s.Round.WrongCount != DefaultGuessLimit || !s.Round.Resolved || s.Round.Won || s.Streak != 0 {
		t.Fatalf("wrong=%d resolved=%v won=%v streak=%d",
			s.Round.WrongCount, s.Round.Resolved, s.Round.Won, s.Streak)
	}
	if s.Phase != PhaseRoundResolved {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseRoundResolved)
	}
}

func TestSessionCloseGuessUsesHintSlot(t *testing.T) {
	s := startedSession(t, DefaultRules())
	s.Guess("answer0")

	_, events := s.Guess("cow")
	if diff := cmp.Diff([]EventKind{EventMiss, EventHint}, kinds(events)); diff != "" {
		t.Fatalf("unexpected events (-want +got)\n%s", diff)
	}
	if events[1].Hint != "second" || s.Round.Hint() != "second" {
		t.Fatalf("hint = %q visible %q, want second", events[1].Hint, s.Round.Hint())
	}
}

func TestSessionHintsFollowMisses(t *testing.T) {
	s := startedSession(t, DefaultRules())

	var hints []string
	for i := 0; i < 4; i++ {
		_, events := s.Guess("cow")
		for _, e := range events {
			if e.Kind == EventHint {
				hints = append(hints, e.Hint)
			}
		}
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, hints); diff != "" {
		t.Errorf("unexpected hints (-want +got)\n%s", diff)
	}
	if s.Round.Hint() != "third" {
		t.Errorf("visible hint = %q, want third", s.Round.Hint())
	}
}

func TestSessionPreRevealHint(t *testing.T) {
	rules := DefaultRules()
	rules.PreRevealHint = true
	s := NewSession(rules)
	events := s.Start(testDeck(rules.Rounds))
	if events[1].Hint != "first" {
		t.Fatalf("round_started hint = %q, want first", events[1].Hint)
	}
	_, events = s.Guess("cow")
	if got := events[len(events)-1]; got.Kind != EventHint || got.Hint != "second" {
		t.Fatalf("hint after first miss = %+v, want second", got)
	}
}

func TestSessionAdvanceIsIdempotent(t *testing.T) {
	s := startedSession(t, DefaultRules())
	if events := s.Advance(); events != nil {
		t.Fatalf("advance on active round produced %v", kinds(events))
	}
	s.Guess("answer01")
	s.Advance()
	s.Advance()
	if s.RoundIndex != 2 {
		t.Fatalf("round = %d after double advance, want 2", s.RoundIndex)
	}
}

func TestSessionCompletesAndConcludesOnce(t *testing.T) {
	s := startedSession(t, DefaultRules())

	completions := 0
	for round := 1; round <= DefaultRounds; round++ {
		if s.RoundIndex != round {
			t.Fatalf("round = %d, want %d", s.RoundIndex, round)
		}
		s.Guess(fmt.Sprintf("answer%02d", round))
		for _, e := range s.Advance() {
			if e.Kind == EventSessionComplete {
				completions++
			}
		}
	}
	if completions != 1 || s.Phase != PhaseSessionFinalizing {
		t.Fatalf("completions=%d phase=%s", completions, s.Phase)
	}
	if events := s.Advance(); events != nil {
		t.Fatalf("advance while finalizing produced %v", kinds(events))
	}

	run, err := s.Conclude("  ", false)
	if err != nil {
		t.Fatalf("Conclude: %v", err)
	}
	wantScore := 0
	for streak := 1; streak <= DefaultRounds; streak++ {
		wantScore += ScoreFor(0, streak)
	}
	want := leaderboard.Run{Name: leaderboard.DefaultName, Score: wantScore, Streak: DefaultRounds}
	if diff := cmp.Diff(want, run); diff != "" {
		t.Errorf("unexpected run (-want +got)\n%s", diff)
	}
	if _, err := s.Conclude("again", false); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("second Conclude err = %v, want ErrNotStarted", err)
	}
	if s.Phase != PhaseAwaitingStart || s.Score != 0 {
		t.Fatalf("phase=%s score=%d after conclude", s.Phase, s.Score)
	}
}

func TestSessionConcludeEarly(t *testing.T) {
	s := startedSession(t, DefaultRules())
	s.Guess("answer01")

	if _, err := s.Conclude("moo", false); !errors.Is(err, ErrNotFinalizing) {
		t.Fatalf("err = %v, want ErrNotFinalizing", err)
	}
	run, err := s.Conclude("moo", true)
	if err != nil {
		t.Fatalf("Conclude early: %v", err)
	}
	if run.Score != 100 || run.Streak != 1 || run.Name != "moo" {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestSessionRequiresStart(t *testing.T) {
	s := NewSession(DefaultRules())
	outcome, events := s.Guess("anything")
	if outcome != OutcomeStartRequired || len(events) != 1 || events[0].Kind != EventStartRequired {
		t.Fatalf("outcome=%q events=%v", outcome, kinds(events))
	}
	if events := s.Start(nil); events != nil || s.Phase != PhaseAwaitingStart {
		t.Fatalf("Start(nil) changed phase to %s", s.Phase)
	}
}

func TestSessionIgnoresBlankGuess(t *testing.T) {
	s := startedSession(t, DefaultRules())
	if outcome, events := s.Guess("   "); outcome != OutcomeIgnored || events != nil {
		t.Fatalf("outcome=%q events=%v", outcome, kinds(events))
	}
	if s.Round.WrongCount != 0 {
		t.Fatalf("wrong = %d, want 0", s.Round.WrongCount)
	}
}

func TestSnapshotHidesSecretUntilResolved(t *testing.T) {
	s := startedSession(t, DefaultRules())
	if got := s.Snapshot().Secret; got != "" {
		t.Fatalf("secret leaked: %q", got)
	}
	s.Guess("answer01")
	if got := s.Snapshot().Secret; got != "answer01" {
		t.Fatalf("secret = %q after win", got)
	}
}
