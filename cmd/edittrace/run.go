package main

// #region imports
import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"edittrace/internal/input"
	"edittrace/internal/orchestrator"
	"edittrace/internal/render"
	"edittrace/internal/session"
	"edittrace/internal/shield"
	"edittrace/internal/suggest"
)

// #endregion imports

// #region command

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start an interactive tracking session",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}

		deps := orchestrator.Deps{Authorizer: shield.AllowAll()}
		if flagDB != "" {
			store, err := session.NewStore(flagDB)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			deps.Saver = store
			deps.Journal = store
		}

		o := orchestrator.New(opts, deps)
		o.RegisterSuggestionProvider(suggest.Pace)
		o.RegisterSuggestionProvider(suggest.Churn)
		if err := o.Start(); err != nil {
			return err
		}
		defer o.Stop()

		fmt.Printf("edittrace session %s\n", o.SessionID())
		fmt.Println("commands: i <pos> <text> | d <pos> <len> | r <pos> <len> <text>")
		fmt.Println("          undo | redo | show | chain [n] | frame [mode] | quit")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				break
			}
			if err := dispatch(o, line); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
		return nil
	},
}

// #endregion command

// #region dispatch

func dispatch(o *orchestrator.Orchestrator, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "i", "insert":
		if len(fields) < 3 {
			return fmt.Errorf("usage: i <pos> <text>")
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("position: %w", err)
		}
		return submit(o, input.Event{
			Type: input.EventInsert, Position: pos,
			Payload: strings.Join(fields[2:], " "),
		})
	case "d", "delete":
		if len(fields) != 3 {
			return fmt.Errorf("usage: d <pos> <len>")
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("position: %w", err)
		}
		length, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("length: %w", err)
		}
		return submit(o, input.Event{Type: input.EventDelete, Position: pos, Length: length})
	case "r", "replace":
		if len(fields) < 4 {
			return fmt.Errorf("usage: r <pos> <len> <text>")
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("position: %w", err)
		}
		length, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("length: %w", err)
		}
		return submit(o, input.Event{
			Type: input.EventReplace, Position: pos, Length: length,
			Payload: strings.Join(fields[3:], " "),
		})
	case "undo":
		return submit(o, input.Event{Type: input.EventUndo})
	case "redo":
		return submit(o, input.Event{Type: input.EventRedo})
	case "show":
		printShow(o)
		return nil
	case "chain":
		n := 0
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("depth: %w", err)
			}
			n = v
		}
		for _, link := range o.Chain(n) {
			if link.Predecessor == nil {
				fmt.Printf("  #%d len=%d (origin)\n", link.Point.Seq, link.Point.ContentLength)
				continue
			}
			fmt.Printf("  #%d len=%d ← #%d len=%d\n",
				link.Point.Seq, link.Point.ContentLength,
				link.Predecessor.Seq, link.Predecessor.ContentLength)
		}
		return nil
	case "frame":
		mode := render.Mode("timeline")
		if len(fields) > 1 {
			mode = render.Mode(fields[1])
		}
		return printFrame(o, mode)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func submit(o *orchestrator.Orchestrator, ev input.Event) error {
	res, err := o.ProcessInput(ev)
	if err != nil {
		return err
	}
	if !res.Accepted {
		fmt.Printf("denied (risk=%s)\n", res.Security.RiskLevel)
		return nil
	}
	fmt.Printf("#%d %s direction=%s confidence=%.2f segments=%d len=%d\n",
		res.Point.Seq, res.Event.Type, res.Direction, res.Confidence,
		len(res.Segments), res.Point.ContentLength)
	for _, p := range res.Predictions {
		fmt.Printf("  ~%d %s (p=%.2f)\n", p.Lookahead, p.Description, p.Probability)
	}
	for _, s := range res.Suggestions {
		fmt.Printf("  hint: %s\n", s)
	}
	return nil
}

func printShow(o *orchestrator.Orchestrator) {
	snap := o.EngineSnapshot()
	fmt.Printf("content: %q\n", o.Content())
	fmt.Printf("direction=%s confidence=%.2f points=%d\n",
		snap.Direction, snap.Confidence, len(snap.Points))
	for _, seg := range snap.Segments {
		fmt.Printf("  segment [%d..%d] %s coherence=%.2f\n",
			seg.Start, seg.End, seg.Direction, seg.Coherence)
	}
}

func printFrame(o *orchestrator.Orchestrator, mode render.Mode) error {
	frame, err := o.Renderer().Render(o.EngineSnapshot(), mode)
	if err != nil {
		return err
	}
	exp, err := o.Renderer().NewExport([]render.Frame{frame}, render.FormatText)
	if err != nil {
		return err
	}
	for {
		out, ok := exp.Next()
		if !ok {
			break
		}
		fmt.Print(string(out))
	}
	return nil
}

// #endregion dispatch
