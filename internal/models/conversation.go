// internal/models/conversation.go
package models

import "time"

// ConversationTurn records one completed utterance/response exchange.
// Turns feed narration context only; routing never reads them back.
type ConversationTurn struct {
	ID           string           `json:"id"`
	Utterance    string           `json:"utterance"`
	Descriptor   *QueryDescriptor `json:"descriptor,omitempty"`
	Result       *QueryResult     `json:"result,omitempty"`
	ResponseText string           `json:"responseText"`
	At           time.Time        `json:"at"`
}

// Response is what the dispatcher returns to the caller surface. Exactly
// one of Result or Error is set.
type Response struct {
	Text     string       `json:"responseText"`
	Result   *QueryResult `json:"result,omitempty"`
	Error    *ErrorResult `json:"error,omitempty"`
	Metadata Metadata     `json:"metadata"`
}

// ErrorResult is the structured, recoverable outcome of a rejected query.
type ErrorResult struct {
	Kind        string   `json:"kind"`
	Message     string   `json:"message"`
	Hint        string   `json:"hint,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Metadata echoes the routing decision for observability and testing.
type Metadata struct {
	Intent     Intent           `json:"intent"`
	Confidence float64          `json:"confidence"`
	Parameters *QueryDescriptor `json:"parameters,omitempty"`
	Narrated   bool             `json:"narrated"`
	FromCache  bool             `json:"fromCache,omitempty"`
	DurationMS int64            `json:"durationMs"`
}
