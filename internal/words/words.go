// internal/words/words.go
//
// Word bank for the trivia game.
//
// Responsibilities:
//   - Load the bank of {answer, category, hints} entries from a JSON document,
//     either the embedded default or a file named by WORDS_FILE.
//   - Deal session decks: a crypto-random shuffle, first n entries, no repeats.
//   - Draw single random entries (with replacement) for per-round dealing,
//     selected with DEAL_MODE=random.
//
// Document shape:
//
//	{"words": [{"answer": "cow", "category": "theme", "hints": ["..."]}]}
//
// Constraints:
//   • Answers must be non-empty after trimming; other entries are skipped.
//   • Banks are immutable once loaded; callers receive copies.

package words

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/lamumu/trivia/assets"
)

// Entry is a single puzzle: the secret answer, its category and ordered hints.
type Entry struct {
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Hints    []string `json:"hints"`
}

type document struct {
	Words []Entry `json:"words"`
}

// Bank is an immutable list of entries.
type Bank struct {
	entries []Entry
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
	defaultErr  error
)

// ErrEmpty is returned when a document yields no playable entries.
var ErrEmpty = errors.New("words: bank is empty")

// Load parses a bank document, dropping entries without an answer.
func Load(data []byte) (*Bank, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("words: parse bank: %w", err)
	}
	entries := lo.Filter(doc.Words, func(e Entry, i int) bool {
		if strings.TrimSpace(e.Answer) == "" {
			log.Warn().Int("index", i).Msg("skipping word entry without answer")
			return false
		}
		return true
	})
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return New(entries), nil
}

// New builds a bank from entries, copying them.
func New(entries []Entry) *Bank {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{
			Answer:   strings.TrimSpace(e.Answer),
			Category: e.Category,
			Hints:    append([]string(nil), e.Hints...),
		}
	}
	return &Bank{entries: out}
}

// Default returns the embedded bank, loading it exactly once.
func Default() (*Bank, error) {
	defaultOnce.Do(func() {
		data, err := assets.Words()
		if err != nil {
			defaultErr = err
			return
		}
		defaultBank, defaultErr = Load(data)
	})
	return defaultBank, defaultErr
}

// FromEnv loads the bank named by WORDS_FILE, or the embedded default.
func FromEnv() (*Bank, error) {
	path := os.Getenv("WORDS_FILE")
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("words: read %s: %w", path, err)
	}
	return Load(data)
}

// Len reports the number of entries.
func (b *Bank) Len() int { return len(b.entries) }

// Entries returns a copy of all entries in bank order.
func (b *Bank) Entries() []Entry {
	return lo.Map(b.entries, func(e Entry, _ int) Entry { return e.clone() })
}

// Deck deals n entries for a session. Entries do not repeat unless n exceeds
// the bank size, in which case further independently shuffled passes follow.
func (b *Bank) Deck(n int) []Entry {
	if n <= 0 || len(b.entries) == 0 {
		return nil
	}
	deck := make([]Entry, 0, n)
	for len(deck) < n {
		pass := shuffle(b.entries)
		need := min(n-len(deck), len(pass))
		deck = append(deck, pass[:need]...)
	}
	return deck
}

// Deal modes accepted by Dealer.
const (
	DealDeck   = "deck"
	DealRandom = "random"
)

// Dealer deals the entries of one session.
type Dealer interface {
	Deck(n int) []Entry
}

// Dealer returns the dealer for mode: the bank itself for DealDeck (or an
// empty mode), or per-round Draws for DealRandom.
func (b *Bank) Dealer(mode string) (Dealer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", DealDeck:
		return b, nil
	case DealRandom:
		return Draws{bank: b}, nil
	}
	return nil, fmt.Errorf("words: unknown deal mode %q (want %s or %s)", mode, DealDeck, DealRandom)
}

// Draws deals every round with an independent Random draw, so an answer can
// come up more than once in a session.
type Draws struct{ bank *Bank }

func (d Draws) Deck(n int) []Entry {
	if n <= 0 || d.bank.Len() == 0 {
		return nil
	}
	deck := make([]Entry, n)
	for i := range deck {
		deck[i] = d.bank.Random()
	}
	return deck
}

// Random draws one entry with replacement.
func (b *Bank) Random() Entry {
	if len(b.entries) == 0 {
		return Entry{}
	}
	return b.entries[randIntn(len(b.entries))].clone()
}

func (e Entry) clone() Entry {
	e.Hints = append([]string(nil), e.Hints...)
	return e
}

// shuffle returns a Fisher–Yates shuffled copy of entries.
func shuffle(entries []Entry) []Entry {
	out := lo.Map(entries, func(e Entry, _ int) Entry { return e.clone() })
	for i := len(out) - 1; i > 0; i-- {
		j := randIntn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// randIntn returns a cryptographically random int in [0, n).
func randIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
