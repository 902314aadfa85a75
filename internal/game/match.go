package game

import "strings"

// MatchResult grades a guess against the secret.
type MatchResult struct {
	Exact bool
	Close bool
}

// Match compares guess and secret case-insensitively after trimming.
//
// A non-exact guess is close when the lengths differ by at most one and at
// most one position differs over the shorter length. This is a positional
// scan, not an edit distance: "gmo" is close to "gmoo", "omoo" is too.
func Match(guess, secret string) MatchResult {
	a := []rune(strings.ToLower(strings.TrimSpace(guess)))
	b := []rune(strings.ToLower(strings.TrimSpace(secret)))
	if string(a) == string(b) {
		return MatchResult{Exact: true}
	}

	diff := len(a) - len(b)
	if diff < -1 || diff > 1 {
		return MatchResult{}
	}
	mismatches := 0
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] != b[i] {
			mismatches++
		}
	}
	return MatchResult{Close: mismatches <= 1}
}
