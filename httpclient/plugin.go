package httpclient

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// Plugin configures an outgoing request immediately before it is sent.
type Plugin interface {
	Configure(req *OutgoingRequest)
}

// PluginFunc adapts an ordinary function to the Plugin interface.
type PluginFunc func(req *OutgoingRequest)

// Configure calls f(req).
func (f PluginFunc) Configure(req *OutgoingRequest) { f(req) }

// Serializer encodes a request body value.
type Serializer func(body any) ([]byte, error)

// Parser decodes response bodies on behalf of a plugin.
type Parser interface {
	// ParseStream consumes resp.Body and calls done exactly once.
	ParseStream(ctx context.Context, resp *IncomingResponse, done func(value any, err error))
	// ParseText decodes a body that is already fully buffered.
	ParseText(text string) (any, error)
}

// OutgoingRequest is the mutable view of a request handed to plugins.
type OutgoingRequest struct {
	method     string
	header     http.Header
	query      url.Values
	serializer Serializer
	parser     Parser
	buffer     bool
}

func newOutgoingRequest(method string, header http.Header, query url.Values) *OutgoingRequest {
	return &OutgoingRequest{
		method: method,
		header: header,
		query:  query,
	}
}

// Method returns the request method.
func (r *OutgoingRequest) Method() string { return r.method }

// Header returns the request headers. Changes are sent with the request.
func (r *OutgoingRequest) Header() http.Header { return r.header }

// Query returns the URL query parameters. Changes are sent with the request.
func (r *OutgoingRequest) Query() url.Values { return r.query }

// Set sets a request header.
func (r *OutgoingRequest) Set(key, value string) { r.header.Set(key, value) }

// Type declares the content type of the request body.
func (r *OutgoingRequest) Type(contentType string) { r.header.Set("Content-Type", contentType) }

// Accept declares the accepted response content type.
func (r *OutgoingRequest) Accept(contentType string) { r.header.Set("Accept", contentType) }

// Buffer forces the response body to be consumed in full by the installed
// parser instead of being exposed raw.
func (r *OutgoingRequest) Buffer(enabled bool) { r.buffer = enabled }

// Serialize installs the body serializer.
func (r *OutgoingRequest) Serialize(s Serializer) { r.serializer = s }

// Parse installs the response parser.
func (r *OutgoingRequest) Parse(p Parser) { r.parser = p }

// Serializer returns the installed body serializer, if any.
func (r *OutgoingRequest) Serializer() Serializer { return r.serializer }

// Parser returns the installed response parser, if any.
func (r *OutgoingRequest) Parser() Parser { return r.parser }

// Buffered reports whether full-body buffering was forced.
func (r *OutgoingRequest) Buffered() bool { return r.buffer }

// NewOutgoingRequest creates a detached request view, for exercising plugins
// without a transport.
func NewOutgoingRequest(method string) *OutgoingRequest {
	return newOutgoingRequest(method, make(http.Header), make(url.Values))
}

// IncomingResponse is the streaming view of a response handed to parsers.
type IncomingResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Header holds the response headers.
	Header http.Header
	// Charset is the declared text encoding of the body. Defaults to utf-8.
	Charset string
	// Body delivers the response bytes in arrival order.
	Body io.Reader

	text string
}

// NewIncomingResponse wraps a body and its metadata. The charset is taken from
// the Content-Type header.
func NewIncomingResponse(statusCode int, header http.Header, body io.Reader) *IncomingResponse {
	if header == nil {
		header = make(http.Header)
	}
	return &IncomingResponse{
		StatusCode: statusCode,
		Header:     header,
		Charset:    charsetOf(header.Get("Content-Type")),
		Body:       body,
	}
}

// SetText records the full decoded body text.
func (r *IncomingResponse) SetText(text string) { r.text = text }

// Text returns the body text recorded by the parser.
func (r *IncomingResponse) Text() string { return r.text }

func charsetOf(contentType string) string {
	if contentType == "" {
		return "utf-8"
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "utf-8"
	}
	if cs := strings.TrimSpace(params["charset"]); cs != "" {
		return strings.ToLower(cs)
	}
	return "utf-8"
}

// parseStream runs the streaming parser and waits for its single result.
func parseStream(ctx context.Context, p Parser, resp *IncomingResponse) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	ch := make(chan outcome, 1)
	p.ParseStream(ctx, resp, func(value any, err error) {
		ch <- outcome{value: value, err: err}
	})
	select {
	case o := <-ch:
		return o.value, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
