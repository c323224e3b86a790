// Package protocol implements the newline-delimited JSON wire format.
//
// One record is one JSON object rendered on a single line and terminated
// by '\n'. JSON string escaping guarantees the payload itself never
// contains a raw newline, so the terminator is unambiguous.
package protocol

import "strings"

// Command tags. Incoming tags are case-folded to upper before matching.
const (
	CmdUpdate    = "UPDATE"
	CmdGetTop    = "GET_TOP"
	CmdGetPlayer = "GET_PLAYER"
	CmdStats     = "STATS"
	CmdPing      = "PING"
)

// Request is one decoded command. Fields beyond Cmd are populated per
// the command table; absent optional fields keep their zero value.
type Request struct {
	Cmd      string
	PlayerID string
	Name     string
	Score    int64
	N        int     // GET_TOP limit; 0 means "use the default"
	TS       float64 // caller-supplied timestamp, seconds since epoch
}

// wireRequest mirrors the JSON shape with pointer fields so that
// required-field validation can distinguish absent from zero.
type wireRequest struct {
	Cmd      string   `json:"cmd"`
	PlayerID *string  `json:"player_id"`
	Name     *string  `json:"name"`
	Score    *int64   `json:"score"`
	N        *int     `json:"n"`
	TS       *float64 `json:"ts"`
}

// toRequest validates required fields for the command and builds the
// Request. Unknown commands pass through; the dispatcher answers those
// with an error response rather than treating them as a decode failure.
func (w *wireRequest) toRequest() (*Request, error) {
	req := &Request{Cmd: strings.ToUpper(strings.TrimSpace(w.Cmd))}

	switch req.Cmd {
	case CmdUpdate:
		switch {
		case w.PlayerID == nil || *w.PlayerID == "":
			return nil, &MalformedError{Reason: "UPDATE missing player_id"}
		case w.Name == nil || *w.Name == "":
			return nil, &MalformedError{Reason: "UPDATE missing name"}
		case w.Score == nil:
			return nil, &MalformedError{Reason: "UPDATE missing score"}
		case w.TS == nil:
			return nil, &MalformedError{Reason: "UPDATE missing ts"}
		}
		req.PlayerID = *w.PlayerID
		req.Name = *w.Name
		req.Score = *w.Score
		req.TS = *w.TS

	case CmdGetTop:
		if w.N != nil {
			if *w.N < 0 {
				return nil, &MalformedError{Reason: "GET_TOP n must not be negative"}
			}
			req.N = *w.N
		}

	case CmdGetPlayer:
		if w.PlayerID == nil || *w.PlayerID == "" {
			return nil, &MalformedError{Reason: "GET_PLAYER missing player_id"}
		}
		req.PlayerID = *w.PlayerID

	case CmdStats, CmdPing:
		// No fields beyond the tag.

	default:
		// Unrecognized tag; carried through for the dispatcher.
	}

	return req, nil
}
