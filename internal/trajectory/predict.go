package trajectory

// #region imports
import "fmt"

// #endregion imports

// #region predictions

// Predictions generates probability-weighted continuations of the current
// trend. It is a pure function of direction, confidence, and the recent
// mean delta: calling it never mutates the window. Probability decays per
// step by (1 - uncertainty), i.e. by the current confidence. Below
// MinPredictionConfidence a single low-probability uncertain prediction is
// returned instead of speculative ones.
func (e *Engine) Predictions(lookahead int) []Prediction {
	if lookahead <= 0 {
		lookahead = e.cfg.PredictionLookahead
	}

	diffs := e.recentDiffs()
	if e.dir == Uncertain || e.conf < e.cfg.MinPredictionConfidence || len(diffs) == 0 {
		return []Prediction{{
			Description: "trend unclear; next state likely near the current length",
			Probability: lowConfidenceProbability,
			Lookahead:   1,
		}}
	}

	mean, _ := meanStddev(diffs)
	last := e.win.at(e.win.len() - 1).ContentLength

	decay := e.conf // 1 - uncertainty
	prob := e.conf
	out := make([]Prediction, 0, lookahead)
	for step := 1; step <= lookahead; step++ {
		projected := last + int(mean*float64(step))
		if projected < 0 {
			projected = 0
		}
		out = append(out, Prediction{
			Description: describeStep(e.dir, step, projected),
			Probability: clamp01(prob),
			Lookahead:   step,
		})
		prob *= decay
	}
	return out
}

const lowConfidenceProbability = 0.15

func describeStep(dir Direction, step, projected int) string {
	switch dir {
	case Expanding:
		return fmt.Sprintf("+%d: content grows to ~%d chars", step, projected)
	case Converging:
		return fmt.Sprintf("+%d: content shrinks to ~%d chars", step, projected)
	case Pivoting:
		return fmt.Sprintf("+%d: oscillation continues around ~%d chars", step, projected)
	default:
		return fmt.Sprintf("+%d: content holds near ~%d chars", step, projected)
	}
}

// #endregion predictions
