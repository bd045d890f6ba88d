package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case HealthResult:
		o.printHealthResult(v)
	case IdentityResult:
		o.printIdentityResult(v)
	case DemoResult:
		o.printDemoResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Session response type (matches API)
type Session struct {
	Identity      string `json:"identity"`
	Phase         string `json:"phase"`
	RoomID        string `json:"room_id,omitempty"`
	IsCreator     bool   `json:"is_creator"`
	Creator       string `json:"creator,omitempty"`
	OpponentSeen  bool   `json:"opponent_seen"`
	OpponentMoved bool   `json:"opponent_moved"`
	LocalMove     string `json:"local_move,omitempty"`
	RemoteMove    string `json:"remote_move,omitempty"`
	Result        string `json:"result,omitempty"`
	ResultText    string `json:"result_text,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// IdentityResult describes the local identity
type IdentityResult struct {
	Identity string `json:"identity"`
	File     string `json:"file"`
	Created  bool   `json:"created"`
}

// DemoPlayer is one side of a demo room
type DemoPlayer struct {
	Identity   string `json:"identity"`
	Move       string `json:"move"`
	Result     string `json:"result"`
	ResultText string `json:"result_text"`
}

// DemoResult is the outcome of an in-process demo room
type DemoResult struct {
	RoomID  string     `json:"room_id"`
	Creator DemoPlayer `json:"creator"`
	Joiner  DemoPlayer `json:"joiner"`
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Identity: %s\n", s.Identity)
	fmt.Fprintf(o.w, "Phase: %s\n", s.Phase)
	if s.RoomID == "" {
		return
	}

	role := "joiner"
	if s.IsCreator {
		role = "creator"
	}
	fmt.Fprintf(o.w, "Room: %s (%s)\n", s.RoomID, role)

	switch {
	case s.OpponentMoved:
		fmt.Fprintln(o.w, "Opponent: moved")
	case s.OpponentSeen || !s.IsCreator:
		fmt.Fprintln(o.w, "Opponent: in room")
	default:
		fmt.Fprintln(o.w, "Opponent: waiting for opponent...")
	}

	if s.LocalMove != "" {
		fmt.Fprintf(o.w, "Your move: %s\n", s.LocalMove)
	}
	if s.RemoteMove != "" {
		fmt.Fprintf(o.w, "Opponent move: %s\n", s.RemoteMove)
	}
	if s.ResultText != "" {
		fmt.Fprintf(o.w, "Result: %s\n", s.ResultText)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func (o *Output) printIdentityResult(r IdentityResult) {
	fmt.Fprintf(o.w, "Identity: %s\n", r.Identity)
	if r.Created {
		fmt.Fprintf(o.w, "Created: %s\n", r.File)
	} else {
		fmt.Fprintf(o.w, "File: %s\n", r.File)
	}
}

func (o *Output) printDemoResult(d DemoResult) {
	fmt.Fprintf(o.w, "Room: %s\n", d.RoomID)
	for _, p := range []DemoPlayer{d.Creator, d.Joiner} {
		fmt.Fprintf(o.w, "  %s played %s: %s\n", p.Identity, p.Move, p.ResultText)
	}
}
