package models

import "time"

// CallStatus is the outcome of one peer call.
type CallStatus string

const (
	StatusSuccess CallStatus = "SUCCESS"
	StatusError   CallStatus = "ERROR"
)

// ErrorKind classifies a failed peer call.
type ErrorKind string

const (
	ErrorKindNone    ErrorKind = ""
	ErrorKindConnect ErrorKind = "CONNECT_ERROR"
	ErrorKindTimeout ErrorKind = "TIMEOUT"
	ErrorKindRPC     ErrorKind = "RPC_ERROR"
	ErrorKindEmpty   ErrorKind = "EMPTY_RESPONSE"
	ErrorKindParse   ErrorKind = "PARSE_ERROR"
)

// Peer is one registered analysis service.
type Peer struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	URL      string `json:"url"`
	Template string `json:"template"`
}

// PeerCallResult is produced once per peer per coordination round.
type PeerCallResult struct {
	PeerName  string        `json:"peer_name"`
	Category  string        `json:"category"`
	Status    CallStatus    `json:"status"`
	Payload   string        `json:"payload,omitempty"`
	Error     string        `json:"error,omitempty"`
	Kind      ErrorKind     `json:"error_kind,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	Duration  time.Duration `json:"-"`
}

// OK reports whether the call produced a payload.
func (r PeerCallResult) OK() bool {
	return r.Status == StatusSuccess
}

// AggregatedAnalysis holds every peer outcome for one instrument.
type AggregatedAnalysis struct {
	Instrument   Instrument                `json:"instrument"`
	PeerResults  map[string]PeerCallResult `json:"peer_results"`
	SuccessCount int                       `json:"success_count"`
	TotalCount   int                       `json:"total_count"`
}

// Successful returns the successful results keyed by category.
func (a *AggregatedAnalysis) Successful() map[string]PeerCallResult {
	out := make(map[string]PeerCallResult, a.SuccessCount)
	for _, r := range a.PeerResults {
		if r.OK() {
			out[r.Category] = r
		}
	}
	return out
}
