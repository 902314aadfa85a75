package game

const (
	basePoints    = 100
	missPenalty   = 15
	minBasePoints = 10
	streakBonus   = 20
)

// ScoreFor returns the points for a win after wrong misses, where streak
// already counts this win. The base never drops below 10; every win in the
// streak beyond the first adds 20.
func ScoreFor(wrong, streak int) int {
	base := max(minBasePoints, basePoints-missPenalty*wrong)
	return base + streakBonus*max(0, streak-1)
}
