package protocol

import (
	"github.com/okian/podium/internal/domain/types"
)

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Update result statuses inside an UPDATE payload.
const (
	UpdateAccepted = "accepted"
	UpdateRejected = "rejected"
)

// Response is the envelope written back for every request, one line per
// request. LatencyMS covers dispatch time only, never network transit.
type Response struct {
	Status    string      `json:"status"`
	LatencyMS float64     `json:"latency_ms"`
	Data      interface{} `json:"data"`
}

// UpdateData is the UPDATE payload: the write outcome plus the score
// stored after the call, useful to a client that lost the race.
type UpdateData struct {
	Status       string `json:"status"`
	CurrentScore int64  `json:"current_score"`
}

// TopData is the GET_TOP payload.
type TopData struct {
	Top []types.Entry `json:"top"`
}

// ErrorData describes a failed or unresolvable request. It doubles as
// the GET_PLAYER not-found indicator inside an ok envelope.
type ErrorData struct {
	Error string `json:"error"`
}

// OK builds a success envelope.
func OK(latencyMS float64, data interface{}) Response {
	if data == nil {
		data = struct{}{}
	}
	return Response{Status: StatusOK, LatencyMS: latencyMS, Data: data}
}

// Fail builds an error envelope with a description payload.
func Fail(latencyMS float64, msg string) Response {
	return Response{Status: StatusError, LatencyMS: latencyMS, Data: ErrorData{Error: msg}}
}
