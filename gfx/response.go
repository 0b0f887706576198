package gfx

import "fmt"

// Placeholder describes a placement the outer terminal should materialize
// as cells at the cursor (non-virtual placements only).
type Placeholder struct {
	ImageID, PlacementID uint32
	Rows, Cols           int
	DoNotMoveCursor      bool
}

// Result is the outcome of dispatching one Command: whether a redraw is
// needed, the formatted protocol reply (empty for suppressed/intermediate
// replies), whether it represents an error, and an optional placeholder
// request for the terminal to materialize.
type Result struct {
	Redraw            bool
	Response          string
	Error             bool
	CreatePlaceholder *Placeholder
}

// formatReply renders "i=…,I=…,p=…; MSG" using whichever of image id,
// image number, placement id the command supplied, per the reply-echo
// rule. An empty msg with no ids still yields a bare reply line.
func formatReply(cmd *Command, msg string) string {
	s := ""
	if cmd.ImageID != 0 {
		s += fmt.Sprintf("i=%d,", cmd.ImageID)
	}
	if cmd.ImageNumber != 0 {
		s += fmt.Sprintf("I=%d,", cmd.ImageNumber)
	}
	if cmd.PlacementID != 0 {
		s += fmt.Sprintf("p=%d,", cmd.PlacementID)
	}
	if len(s) > 0 {
		s = s[:len(s)-1] // trim trailing comma
	}
	if msg == "" {
		return s
	}
	if s == "" {
		return msg
	}
	return s + ";" + msg
}

// okResult builds a successful Result, honoring quiet=1 (suppress OK).
func okResult(cmd *Command, redraw bool) *Result {
	r := &Result{Redraw: redraw}
	if cmd.Quiet < 1 {
		r.Response = formatReply(cmd, "OK")
	}
	return r
}

// errResult builds an error Result, honoring quiet=2 (suppress errors too).
func errResult(cmd *Command, err error) *Result {
	r := &Result{Error: true}
	if cmd.Quiet < 2 {
		r.Response = formatReply(cmd, err.Error())
	}
	return r
}
