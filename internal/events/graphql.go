package events

import "time"

// OperationStart is emitted before sending a GraphQL operation.
type OperationStart struct {
	Query         string
	OperationName string
	OperationType string

	// Uploads is the number of distinct files extracted from the
	// operation variables; zero means a plain JSON request.
	Uploads int
}

// OperationFinish is emitted after the response has been parsed
// or the send failed.
type OperationFinish struct {
	Query         string
	OperationName string
	OperationType string
	Uploads       int
	Errors        []error
	Duration      time.Duration
}
