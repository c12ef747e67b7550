package domain

import "math"

// ModuleTotalSteps is the fixed number of steps in every guided module.
const ModuleTotalSteps = 6

// CalculateModuleProgress returns the session's completion percentage.
// It only looks at the step counter; per-step data is not checked.
func CalculateModuleProgress(s Session) int {
	if s.Status == SessionCompleted {
		return 100
	}
	return clampPercent(roundHalfUp(float64(s.CurrentStep) / ModuleTotalSteps * 100))
}

// CalculateOverallProgress is the rounded mean of per-module percentages.
func CalculateOverallProgress(progresses []int) int {
	if len(progresses) == 0 {
		return 0
	}
	sum := 0
	for _, p := range progresses {
		sum += p
	}
	return clampPercent(roundHalfUp(float64(sum) / float64(len(progresses))))
}

// roundHalfUp rounds .5 towards +Inf, so 66.5 -> 67 and -0.5 -> 0.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
