package render

// #region imports
import (
	"encoding/json"
	"fmt"
	"strings"
)

// #endregion imports

// #region format

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// #endregion format

// #region export

// Export is a lazy, finite, restartable sequence of encoded frames. Frames
// are copied at construction and never mutated.
type Export struct {
	frames []Frame
	format Format
	limit  int
	pos    int
}

// NewExport builds an export over the given frames, bounded by the
// renderer's export limit.
func (r *Renderer) NewExport(frames []Frame, format Format) (*Export, error) {
	switch format {
	case FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	copied := make([]Frame, len(frames))
	for i, f := range frames {
		copied[i] = copyFrame(f)
	}
	return &Export{
		frames: copied,
		format: format,
		limit:  r.cfg.ExportLimit,
	}, nil
}

// Next yields the next encoded frame. ok is false once the sequence is
// exhausted or the export limit is reached.
func (e *Export) Next() (out []byte, ok bool) {
	if e.pos >= len(e.frames) || e.pos >= e.limit {
		return nil, false
	}
	f := e.frames[e.pos]
	e.pos++

	switch e.format {
	case FormatJSON:
		b, err := json.Marshal(frameDoc(f))
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return []byte(frameText(f)), true
	}
}

// Reset restarts the sequence from the first frame.
func (e *Export) Reset() {
	e.pos = 0
}

// #endregion export

// #region encoding

type elementJSON struct {
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

type frameJSON struct {
	Mode     string        `json:"mode"`
	Seq      int           `json:"seq"`
	Elements []elementJSON `json:"elements"`
}

func frameDoc(f Frame) frameJSON {
	doc := frameJSON{Mode: string(f.Mode), Seq: f.Seq, Elements: make([]elementJSON, len(f.Elements))}
	for i, el := range f.Elements {
		doc.Elements[i] = elementJSON{
			Kind: string(el.Kind), X: el.X, Y: el.Y, Color: el.Color, Label: el.Label,
		}
	}
	return doc
}

func frameText(f Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "frame seq=%d mode=%s\n", f.Seq, f.Mode)
	for _, el := range f.Elements {
		fmt.Fprintf(&b, "  %-7s (%6.2f, %8.2f) %-6s %s\n", el.Kind, el.X, el.Y, el.Color, el.Label)
	}
	return b.String()
}

// #endregion encoding
