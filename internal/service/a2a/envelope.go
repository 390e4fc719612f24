package a2a

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	JSONRPCVersion    = "2.0"
	MethodMessageSend = "message/send"
	RoleUser          = "user"
	RoleAgent         = "agent"
	PartKindText      = "text"
)

// Part is one content fragment of a message or artifact.
type Part struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Message is a single conversational turn.
type Message struct {
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
}

// Artifact is an output produced by a peer task.
type Artifact struct {
	ArtifactID string `json:"artifactId,omitempty"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// TaskStatus carries the task state and an optional status message.
type TaskStatus struct {
	State   string   `json:"state,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Result is the task payload of a successful reply.
type Result struct {
	ID        string      `json:"id,omitempty"`
	Kind      string      `json:"kind,omitempty"`
	Status    *TaskStatus `json:"status,omitempty"`
	Artifacts []Artifact  `json:"artifacts,omitempty"`
}

// SendParams are the params of a message/send call.
type SendParams struct {
	Message Message `json:"message"`
}

// Request is an outbound JSON-RPC envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an inbound JSON-RPC envelope. Error is kept raw so it can be
// reported verbatim whatever its shape.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  *Result         `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// RPCError is the standard JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRequestID returns a short random id.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewSendMessageRequest builds a message/send envelope carrying text.
func NewSendMessageRequest(id, text string) (*Request, error) {
	params, err := json.Marshal(SendParams{
		Message: Message{
			MessageID: "m-" + id,
			Role:      RoleUser,
			Parts:     []Part{{Kind: PartKindText, Text: text}},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Request{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  MethodMessageSend,
		Params:  params,
	}, nil
}

// TextResult wraps text as a completed task with one artifact.
func TextResult(taskID, text string) *Result {
	return &Result{
		ID:        taskID,
		Kind:      "task",
		Status:    &TaskStatus{State: "completed"},
		Artifacts: []Artifact{{ArtifactID: "a-" + taskID, Parts: []Part{{Kind: PartKindText, Text: text}}}},
	}
}

// FirstText returns the text of the first part, if any.
func FirstText(parts []Part) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

func hasError(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}
