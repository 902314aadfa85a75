package game

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		guess, secret string
		want          MatchResult
	}{
		{"Lamumu", "lamumu", MatchResult{Exact: true}},
		{"  LAMUMU ", "lamumu", MatchResult{Exact: true}},
		{"gmo", "gmoo", MatchResult{Close: true}},
		{"gmooo", "gmoo", MatchResult{Close: true}},
		{"herd", "herb", MatchResult{Close: true}},
		{"omoo", "gmoo", MatchResult{Close: true}},
		{"cow", "milk", MatchResult{}},
		{"hrbe", "herb", MatchResult{}},
		{"he", "herb", MatchResult{}},
		{"moo", "moooo", MatchResult{}},
		{"crème", "creme", MatchResult{Close: true}},
	}
	for _, tt := range tests {
		if got := Match(tt.guess, tt.secret); got != tt.want {
			t.Errorf("Match(%q, %q) = %+v, want %+v", tt.guess, tt.secret, got, tt.want)
		}
	}
}
