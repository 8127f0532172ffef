package uploadclient

import (
	"io"
	"net/http"

	"github.com/hyperse-io/apollo-upload-client/internal/upload"
)

// Request is one GraphQL operation to send. Variables may contain
// *upload.Upload values (or upload.FileList collections) at any depth;
// the client lifts them out and ships them as multipart body parts.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any

	// Header is added to the outgoing HTTP request, after the
	// client-level headers.
	Header http.Header
}

// NewRequest makes a Request for the given query string.
func NewRequest(query string) *Request {
	return &Request{Query: query, Header: make(http.Header)}
}

// Var sets a variable.
func (r *Request) Var(key string, value any) {
	if r.Variables == nil {
		r.Variables = make(map[string]any)
	}
	r.Variables[key] = value
}

// Upload sets a variable to a file read from content.
func (r *Request) Upload(key, filename string, content io.Reader) {
	r.Var(key, upload.New(filename, content))
}
