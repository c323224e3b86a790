package protocol

import (
	"bytes"
	"encoding/json"
)

// terminator ends every wire record.
const terminator = '\n'

// Decode extracts one record from buf.
//
// When buf holds no terminator it returns (nil, buf, ErrIncomplete) and
// consumes nothing; the caller keeps accumulating. Otherwise the record
// up to and including the terminator is consumed and rest holds the
// remainder for the next call. Whitespace-only records are consumed
// silently, so Decode may report ErrIncomplete after eating blank lines.
//
// A record that fails to parse, or a known command missing required
// fields, yields a *MalformedError with the record consumed: the caller
// answers with an error response and keeps the connection open.
func Decode(buf []byte) (*Request, []byte, error) {
	rest := buf
	for {
		idx := bytes.IndexByte(rest, terminator)
		if idx < 0 {
			return nil, rest, ErrIncomplete
		}

		line := bytes.TrimSpace(rest[:idx])
		rest = rest[idx+1:]
		if len(line) == 0 {
			continue
		}

		var w wireRequest
		if err := json.Unmarshal(line, &w); err != nil {
			return nil, rest, &MalformedError{Reason: "invalid JSON: " + err.Error()}
		}

		req, err := w.toRequest()
		if err != nil {
			return nil, rest, err
		}
		return req, rest, nil
	}
}

// Encode serializes one response envelope followed by the terminator.
func Encode(resp Response) ([]byte, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(b, terminator), nil
}

// EncodeRequest serializes one request as a client would send it.
func EncodeRequest(req *Request) ([]byte, error) {
	w := map[string]interface{}{"cmd": req.Cmd}
	switch req.Cmd {
	case CmdUpdate:
		w["player_id"] = req.PlayerID
		w["name"] = req.Name
		w["score"] = req.Score
		w["ts"] = req.TS
	case CmdGetTop:
		if req.N > 0 {
			w["n"] = req.N
		}
	case CmdGetPlayer:
		w["player_id"] = req.PlayerID
	}

	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return append(b, terminator), nil
}
