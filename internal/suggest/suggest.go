// Package suggest ships reference suggestion providers built on the
// adapter's per-event context. They exercise the registration contract;
// richer providers are expected to come from callers.
package suggest

// #region imports
import (
	"fmt"

	"edittrace/internal/input"
)

// #endregion imports

// #region pace

// paceThresholds gate the pace provider's hints.
const (
	burstVelocity  = 40.0 // chars/s
	burstIntensity = 3.0  // events/s
)

// Pace emits hints when the trailing velocity or intensity spikes.
func Pace(ctx input.AdaptationContext) []string {
	var out []string
	if ctx.TypingVelocity >= burstVelocity {
		out = append(out, fmt.Sprintf("high typing velocity (%.0f chars/s); consider a checkpoint", ctx.TypingVelocity))
	}
	if ctx.EditIntensity >= burstIntensity {
		out = append(out, fmt.Sprintf("rapid edits (%.1f/s); trajectory may be pivoting", ctx.EditIntensity))
	}
	return out
}

// #endregion pace

// #region churn

// churnRatio flags removals much larger than additions in one event.
const churnRatio = 4

// Churn emits a hint when an event removes far more text than it adds.
func Churn(ctx input.AdaptationContext) []string {
	added, removed := 0, 0
	for _, s := range ctx.Diff.Added {
		added += len([]rune(s.Text))
	}
	for _, s := range ctx.Diff.Removed {
		removed += len([]rune(s.Text))
	}
	if removed > 0 && removed >= churnRatio*max(added, 1) {
		return []string{fmt.Sprintf("large removal (%d chars); an undo point was kept", removed)}
	}
	return nil
}

// #endregion churn
