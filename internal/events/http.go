package events

import (
	"net/http"
	"time"
)

// RequestStart is emitted when an outgoing HTTP request is about to be
// sent. Context carries the operation context.
type RequestStart struct {
	Request *http.Request
}

// RequestFinish is emitted after the HTTP exchange completes.
// Status is zero when the exchange failed before a response arrived.
type RequestFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
