package searcher

import "math"

func ucb1(rewards float64, visits int, c2LnN float64) float64 {
	// Prioritize unexplored moves
	if visits == 0 {
		return math.Inf(1)
	}

	return rewards/float64(visits) + math.Sqrt(c2LnN/float64(visits))
}

func reward(goal int) float64 {
	return float64(goal) / MaxGoal
}

// pick returns the edge with the highest UCB1 score.
func pick(edges []edge) int {
	visits := 0
	for _, e := range edges {
		visits += e.visits
	}
	if visits == 0 {
		return 0
	}

	normalizer := C_SQUARED * math.Log(float64(visits))

	maxIndex := -1
	maxScore := math.Inf(-1)
	for i, e := range edges {
		score := ucb1(e.rewards, e.visits, normalizer)
		if score == math.Inf(1) {
			return i
		}
		if score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return maxIndex
}
