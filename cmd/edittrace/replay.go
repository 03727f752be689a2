package main

// #region imports
import (
	"fmt"

	"github.com/spf13/cobra"

	"edittrace/internal/replay"
)

// #endregion imports

// #region command

var flagVerbose bool

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "replay a recorded fixture and check its expectations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := replay.LoadFixture(args[0])
		if err != nil {
			return err
		}
		if f.Description != "" {
			fmt.Printf("fixture: %s\n", f.Description)
		}

		results, summary, err := replay.Run(f)
		if err != nil {
			return err
		}

		if flagVerbose {
			for _, r := range results {
				fmt.Printf("  [%d] %-9s direction=%-10s confidence=%.2f segments=%d window=%d\n",
					r.EventIndex, r.Action, r.Direction, r.Confidence, r.Segments, r.WindowLen)
				for _, v := range r.Violations {
					fmt.Printf("      violation: %s\n", v)
				}
			}
		}

		fmt.Printf("events=%d processed=%d rejected=%d errors=%d\n",
			summary.TotalEvents, summary.Processed, summary.Rejected, summary.Errors)
		fmt.Printf("final: direction=%s confidence=%.2f content=%d chars\n",
			summary.FinalDirection, summary.FinalConfidence, len([]rune(summary.FinalContent)))

		if summary.Violations > 0 {
			return fmt.Errorf("%d invariant violations", summary.Violations)
		}
		if mismatches := replay.Verify(results, f.Expectations); len(mismatches) > 0 {
			for _, m := range mismatches {
				fmt.Printf("mismatch: %s\n", m)
			}
			return fmt.Errorf("%d expectations failed", len(mismatches))
		}
		fmt.Println("all expectations met")
		return nil
	},
}

func init() {
	replayCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print per-event results")
}

// #endregion command
