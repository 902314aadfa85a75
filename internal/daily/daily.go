// internal/daily/daily.go
//
// Daily challenge: every player gets the same deck on the same UTC day.
// The deck order is derived from HMAC(salt, YYYY-MM-DD), so it changes at
// midnight UTC and cannot be predicted without the salt.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/words"
)

// Seed returns the two PCG seeds for date.
func Seed(date time.Time, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(leaderboard.DateKey(date)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Dealer deals the day's deck from a bank. It satisfies game.Dealer.
type Dealer struct {
	bank *words.Bank
	salt string
	now  func() time.Time
}

// NewDealer returns a Dealer over bank keyed by salt.
func NewDealer(bank *words.Bank, salt string) *Dealer {
	return &Dealer{bank: bank, salt: salt, now: time.Now}
}

// WithClock overrides the clock used to pick the day.
func (d *Dealer) WithClock(now func() time.Time) *Dealer {
	d.now = now
	return d
}

// Deck returns n entries in the day's order. A deck longer than the bank
// repeats that same order; words.Bank.Deck reshuffles each extra pass instead.
func (d *Dealer) Deck(n int) []words.Entry {
	entries := d.bank.Entries()
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	r := rand.New(rand.NewPCG(Seed(d.now(), d.salt)))
	r.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })

	deck := make([]words.Entry, 0, n)
	for len(deck) < n {
		need := min(n-len(deck), len(entries))
		deck = append(deck, entries[:need]...)
	}
	return deck
}
