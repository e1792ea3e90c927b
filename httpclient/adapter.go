package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/kbukum/gokit-json22/logger"
	"github.com/kbukum/gokit-json22/resilience"
)

// Adapter is a configurable HTTP adapter with plugin-driven content
// negotiation and optional retry.
type Adapter struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger

	mu      sync.RWMutex
	plugins []Plugin
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Adapter) { a.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l.WithComponent("httpclient") }
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		config:  cfg,
		log:     logger.WithComponent("httpclient"),
		plugins: append([]Plugin(nil), cfg.Plugins...),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Use registers plugins that configure every subsequent request sent through
// this adapter. Other adapters are unaffected.
func (a *Adapter) Use(plugins ...Plugin) *Adapter {
	a.mu.Lock()
	a.plugins = append(a.plugins, plugins...)
	a.mu.Unlock()
	return a
}

// Do executes an HTTP request and returns the complete response.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.config.Retry != nil {
		return resilience.Retry(ctx, *a.config.Retry, func() (*Response, error) {
			return a.executeRequest(ctx, req)
		})
	}
	return a.executeRequest(ctx, req)
}

// DoStream executes an HTTP request and returns a streaming response.
// The caller must close the returned StreamResponse when done.
// Note: Retry is not applied to streaming requests.
func (a *Adapter) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	httpReq, out, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	// Transport-only client: the context handles cancellation of long streams.
	streamClient := &http.Client{
		Transport: a.httpClient.Transport,
	}

	resp, err := streamClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, ClassifyStatusCode(resp.StatusCode, body)
	}

	result := &StreamResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
	}

	if out.parser == nil || !out.buffer {
		result.Body = resp.Body
		result.rawResp = resp
		return result, nil
	}

	defer func() { _ = resp.Body.Close() }()
	in := NewIncomingResponse(resp.StatusCode, resp.Header, resp.Body)
	value, err := parseStream(ctx, out.parser, in)
	if err != nil {
		return nil, NewDecodeError(resp.StatusCode, nil, err)
	}
	result.Data = value
	result.Body = io.NopCloser(strings.NewReader(in.Text()))
	return result, nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// Close releases idle connections held by the adapter.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// executeRequest builds and sends the HTTP request once.
func (a *Adapter) executeRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, out, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	a.log.Debug("sending request", logger.Fields(
		"method", httpReq.Method,
		"url", httpReq.URL.Redacted(),
		"parser", out.parser != nil,
	))

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
	}

	if out.parser != nil {
		if err := a.parseResponse(ctx, out, resp, result); err != nil {
			return result, err
		}
	} else {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
		}
		result.Body = body
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, result.Body); classErr != nil {
		return result, classErr
	}

	return result, nil
}

// parseResponse hands the body to the installed parser: streamed when
// buffering was forced, otherwise read in full and parsed synchronously.
func (a *Adapter) parseResponse(ctx context.Context, out *OutgoingRequest, resp *http.Response, result *Response) error {
	if out.buffer {
		in := NewIncomingResponse(resp.StatusCode, resp.Header, resp.Body)
		value, err := parseStream(ctx, out.parser, in)
		if err != nil {
			if ctx.Err() != nil {
				return NewTimeoutError(err)
			}
			a.log.Debug("parser rejected response", logger.Fields("status", resp.StatusCode, logger.FieldError, err.Error()))
			return NewDecodeError(resp.StatusCode, nil, err)
		}
		result.Text = in.Text()
		result.Body = []byte(result.Text)
		result.Data = value
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewConnectionError(fmt.Errorf("read response body: %w", err))
	}
	result.Body = body
	result.Text = string(body)
	value, err := out.parser.ParseText(result.Text)
	if err != nil {
		return NewDecodeError(resp.StatusCode, body, err)
	}
	result.Data = value
	return nil
}

// buildRequest constructs an *http.Request from the adapter config and
// request, running every registered plugin first.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, *OutgoingRequest, error) {
	// Resolve URL
	target := req.Path
	if a.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		target = strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}

	header := make(http.Header)
	for k, v := range a.config.Headers {
		header.Set(k, v)
	}
	for k, v := range req.Headers {
		header.Set(k, v)
	}
	query := make(url.Values)
	for k, v := range req.Query {
		query.Set(k, v)
	}

	out := newOutgoingRequest(req.Method, header, query)
	a.mu.RLock()
	plugins := append(append([]Plugin(nil), a.plugins...), req.Plugins...)
	a.mu.RUnlock()
	for _, p := range plugins {
		p.Configure(out)
	}

	body, contentType, err := encodeBody(req.Body, out.serializer)
	if err != nil {
		return nil, nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(query) > 0 {
		q := httpReq.URL.Query()
		for k, vs := range query {
			q[k] = vs
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header = header
	if body != nil && header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	return httpReq, out, nil
}

// encodeBody converts a body value into an io.Reader and default content type.
// Raw bodies bypass the serializer.
func encodeBody(body any, serialize Serializer) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	}
	if serialize != nil {
		data, err := serialize(body)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
