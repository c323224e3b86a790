package protocol

import "errors"

// ErrIncomplete reports that the buffer holds no complete record yet;
// the caller must keep accumulating bytes. Nothing has been consumed.
var ErrIncomplete = errors.New("incomplete record")

// MalformedError reports a record that was syntactically invalid or was
// a known command missing required fields. The offending record has
// been consumed; the session should answer with an error response and
// keep reading.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed request: " + e.Reason
}

// AsMalformed returns the malformed error carried by err, if any.
func AsMalformed(err error) (*MalformedError, bool) {
	var m *MalformedError
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}
