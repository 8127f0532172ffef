// Package uploadclient is a GraphQL HTTP client with file upload
// support. Operations whose variables contain no files are sent as plain
// JSON POSTs; operations carrying files are sent per the GraphQL
// multipart request convention, with each file's content transmitted as
// a separate body part and re-associated server-side by variable path.
package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperse-io/apollo-upload-client/internal/eventbus"
	"github.com/hyperse-io/apollo-upload-client/internal/events"
	"github.com/hyperse-io/apollo-upload-client/internal/extract"
	"github.com/hyperse-io/apollo-upload-client/internal/language"
	"github.com/hyperse-io/apollo-upload-client/internal/multipartbody"
	"github.com/hyperse-io/apollo-upload-client/internal/reqid"
	"github.com/hyperse-io/apollo-upload-client/internal/upload"
)

// Error is one GraphQL response error.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e Error) Error() string { return e.Message }

// Response is a GraphQL execution result. Errors may accompany partial
// Data; the client does not treat them as transport failures.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// Options configures the client.
//
// Defaults:
// - Timeout:       30s (used only if the caller context has no deadline)
// - HTTPClient:    http.DefaultClient
// - IsExtractable: upload.IsExtractable
type Options struct {
	Timeout       time.Duration
	HTTPClient    *http.Client
	Header        http.Header
	IsExtractable extract.Classifier
}

// Option mutates Options.
type Option func(*Options)

func WithTimeout(d time.Duration) Option   { return func(o *Options) { o.Timeout = d } }
func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.HTTPClient = c } }

func WithIsExtractable(f extract.Classifier) Option {
	return func(o *Options) { o.IsExtractable = f }
}
func WithHeader(key string, values ...string) Option {
	return func(o *Options) {
		if o.Header == nil {
			o.Header = make(http.Header)
		}
		for _, v := range values {
			o.Header.Add(key, v)
		}
	}
}

// Client sends GraphQL operations to a single endpoint.
type Client struct {
	endpoint string
	opt      Options
}

// New creates a Client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	op := Options{Timeout: 30 * time.Second, IsExtractable: upload.IsExtractable}
	for _, f := range opts {
		f(&op)
	}
	if op.HTTPClient == nil {
		op.HTTPClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, opt: op}
}

// Do sends req and returns the parsed GraphQL response. The query is
// syntax-checked before any network I/O. One HTTP request is in flight
// per call; cancelling ctx aborts it.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Query == "" {
		return nil, ErrMissingQuery
	}
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return nil, fmt.Errorf("parsing query: %w", err)
	}
	op, err := language.ResolveOperation(doc, req.OperationName)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && c.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opt.Timeout)
		defer cancel()
	}
	ctx, _ = reqid.NewContext(ctx)

	payload := map[string]any{"query": req.Query}
	if req.OperationName != "" {
		payload["operationName"] = req.OperationName
	}
	if req.Variables != nil {
		payload["variables"] = req.Variables
	}

	clone, files, err := extract.Extract(payload, c.opt.IsExtractable, "")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	eventbus.Publish(ctx, events.OperationStart{
		Query:         req.Query,
		OperationName: op.Name,
		OperationType: string(op.Operation),
		Uploads:       files.Len(),
	})
	res, err := c.send(ctx, req.Header, clone, files)
	finish := events.OperationFinish{
		Query:         req.Query,
		OperationName: op.Name,
		OperationType: string(op.Operation),
		Uploads:       files.Len(),
		Duration:      time.Since(start),
	}
	if err != nil {
		finish.Errors = []error{err}
	} else {
		for _, e := range res.Errors {
			finish.Errors = append(finish.Errors, e)
		}
	}
	eventbus.Publish(ctx, finish)
	return res, err
}

func (c *Client) send(ctx context.Context, header http.Header, operations any, files *extract.Files) (*Response, error) {
	var body bytes.Buffer
	var contentType string
	if files.Len() == 0 {
		if err := json.NewEncoder(&body).Encode(operations); err != nil {
			return nil, fmt.Errorf("encoding operations: %w", err)
		}
		contentType = "application/json; charset=utf-8"
	} else {
		ct, err := multipartbody.Write(&body, operations, files)
		if err != nil {
			return nil, err
		}
		contentType = ct
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, vs := range c.opt.Header {
		httpReq.Header[k] = append(httpReq.Header[k], vs...)
	}
	for k, vs := range header {
		httpReq.Header[k] = append(httpReq.Header[k], vs...)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	eventbus.Publish(ctx, events.RequestStart{Request: httpReq})
	httpRes, err := c.opt.HTTPClient.Do(httpReq)
	status := 0
	if httpRes != nil {
		status = httpRes.StatusCode
	}
	eventbus.Publish(ctx, events.RequestFinish{Request: httpReq, Status: status, Duration: time.Since(start)})
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpRes.Body.Close()

	raw, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: %s", httpRes.Status, summarize(raw))
	}
	return &out, nil
}

// summarize trims a non-GraphQL response body down to one error-sized line.
func summarize(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "…"
	}
	if s == "" {
		return "empty response body"
	}
	return s
}
