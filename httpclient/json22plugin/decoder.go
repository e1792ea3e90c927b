package json22plugin

import (
	"context"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kbukum/gokit-json22/httpclient"
	"github.com/kbukum/gokit-json22/json22"
	"github.com/kbukum/gokit-json22/logger"
	"github.com/kbukum/gokit-json22/observability"
)

const (
	defaultChunkSize = 32 * 1024

	// SpanDecode names the span recorded around each streaming decode.
	SpanDecode = "json22.decode"

	instrumentationName = "github.com/kbukum/gokit-json22/httpclient/json22plugin"
)

// DecodeSync decodes text that is already complete. Codec errors are returned
// as is.
func DecodeSync(text string, opts json22.ParseOptions) (any, error) {
	return json22.Unmarshal(text, opts)
}

// DecodeStreaming drains resp.Body and decodes it with a default decoder.
func DecodeStreaming(ctx context.Context, resp *httpclient.IncomingResponse, opts json22.ParseOptions) *Task {
	return NewDecoder(opts).DecodeStreaming(ctx, resp)
}

// Decoder turns streamed response bodies into decoded JSON22 values. It is
// safe for concurrent use; every response gets its own buffer.
type Decoder struct {
	opts      json22.ParseOptions
	chunkSize int
	log       *logger.Logger
	metrics   *observability.DecodeMetrics
}

var _ httpclient.Parser = (*Decoder)(nil)

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithChunkSize sets the read size used while draining a stream.
func WithChunkSize(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithLogger sets the decoder logger.
func WithLogger(l *logger.Logger) DecoderOption {
	return func(d *Decoder) { d.log = l.WithComponent("json22plugin") }
}

// WithMetrics sets the instruments that record decode outcomes.
func WithMetrics(m *observability.DecodeMetrics) DecoderOption {
	return func(d *Decoder) { d.metrics = m }
}

// NewDecoder creates a decoder bound to opts.
func NewDecoder(opts json22.ParseOptions, options ...DecoderOption) *Decoder {
	d := &Decoder{
		opts:      opts,
		chunkSize: defaultChunkSize,
		log:       logger.WithComponent("json22plugin"),
	}
	for _, opt := range options {
		opt(d)
	}
	if d.metrics == nil {
		m, err := observability.NewDecodeMetrics(observability.Meter(instrumentationName))
		if err != nil {
			d.log.Warn("decode metrics disabled", logger.ErrorFields("new_decode_metrics", err))
		}
		d.metrics = m
	}
	return d
}

// DecodeSync decodes complete text with the decoder's options.
func (d *Decoder) DecodeSync(text string) (any, error) {
	return DecodeSync(text, d.opts)
}

// DecodeStreaming starts draining resp.Body on a new goroutine and returns the
// pending result.
func (d *Decoder) DecodeStreaming(ctx context.Context, resp *httpclient.IncomingResponse) *Task {
	t := newTask()
	go d.run(ctx, resp, t)
	return t
}

// ParseStream implements httpclient.Parser.
func (d *Decoder) ParseStream(ctx context.Context, resp *httpclient.IncomingResponse, done func(value any, err error)) {
	d.DecodeStreaming(ctx, resp).Then(done)
}

// ParseText implements httpclient.Parser.
func (d *Decoder) ParseText(text string) (any, error) {
	return d.DecodeSync(text)
}

func (d *Decoder) run(ctx context.Context, resp *httpclient.IncomingResponse, t *Task) {
	ctx, span := observability.StartSpan(ctx, SpanDecode)
	defer span.End()
	start := time.Now()

	acc := newAccumulator(resp.StatusCode, d.log)
	finish := func(value any, err error) {
		text := acc.text()
		span.SetAttributes(
			attribute.Int("http.status_code", resp.StatusCode),
			attribute.Int("json22.bytes", len(text)),
			attribute.Int("json22.chunks", acc.chunks),
		)
		outcome := "success"
		if err != nil {
			outcome = "failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if d.metrics != nil {
			d.metrics.RecordDecode(ctx, outcome, len(text), time.Since(start))
		}
		t.complete(value, text, err)
	}

	var body io.Reader = resp.Body
	if body == nil {
		body = strings.NewReader("")
	}
	src := transform.NewReader(body, d.textDecoder(resp.Charset))
	buf := make([]byte, d.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			finish(nil, acc.fail(err))
			return
		}
		n, err := src.Read(buf)
		if n > 0 {
			acc.append(string(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			finish(nil, acc.fail(err))
			return
		}
	}

	text := acc.finalize()
	value, err := json22.Unmarshal(text, d.opts)
	if err != nil {
		finish(nil, acc.fail(err))
		return
	}
	resp.SetText(text)
	acc.succeed()
	finish(value, nil)
}

// textDecoder resolves the response charset, falling back to UTF-8.
func (d *Decoder) textDecoder(label string) *encoding.Decoder {
	if label != "" {
		if enc, _ := charset.Lookup(label); enc != nil {
			return enc.NewDecoder()
		}
		d.log.Warn("unknown response charset, using utf-8", logger.Fields("charset", label))
	}
	return unicode.UTF8.NewDecoder()
}

type decodeState int

const (
	stateInit decodeState = iota
	stateAccumulating
	stateFinalizing
	stateSuccess
	stateFailure
)

func (s decodeState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateAccumulating:
		return "accumulating"
	case stateFinalizing:
		return "finalizing"
	case stateSuccess:
		return "success"
	case stateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// accumulator is the per-response buffer. It is owned by one goroutine.
type accumulator struct {
	state      decodeState
	statusCode int
	buf        strings.Builder
	chunks     int
	log        *logger.Logger
}

func newAccumulator(statusCode int, log *logger.Logger) *accumulator {
	return &accumulator{state: stateInit, statusCode: statusCode, log: log}
}

func (a *accumulator) transition(to decodeState) {
	a.log.Debug("decode state", logger.Fields("from", a.state.String(), "to", to.String(), "chunks", a.chunks))
	a.state = to
}

func (a *accumulator) append(chunk string) {
	if a.state == stateInit {
		a.transition(stateAccumulating)
	}
	a.buf.WriteString(chunk)
	a.chunks++
}

func (a *accumulator) text() string { return a.buf.String() }

func (a *accumulator) finalize() string {
	a.transition(stateFinalizing)
	return a.buf.String()
}

func (a *accumulator) succeed() {
	a.transition(stateSuccess)
}

func (a *accumulator) fail(err error) *DecodeError {
	a.transition(stateFailure)
	a.log.Warn("response decode failed", logger.Fields(
		"status", a.statusCode,
		"bytes", a.buf.Len(),
		logger.FieldError, err.Error(),
	))
	return &DecodeError{
		RawResponse: a.buf.String(),
		StatusCode:  a.statusCode,
		Err:         err,
	}
}
