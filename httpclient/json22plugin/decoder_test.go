package json22plugin

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/gokit-json22/httpclient"
	"github.com/kbukum/gokit-json22/json22"
	"github.com/kbukum/gokit-json22/observability"
)

type typedModel struct {
	A int `json:"a"`
}

func (typedModel) JSON22Type() string { return "TypedModel" }

var testContext = json22.Context{}.Register("TypedModel", json22.ConstructorFor[typedModel]())

// chunkReader returns its chunks one Read at a time.
type chunkReader struct {
	chunks []string
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func response(status int, contentType string, body io.Reader) *httpclient.IncomingResponse {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return httpclient.NewIncomingResponse(status, h, body)
}

func waitTask(t *testing.T, task *Task) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("decode did not finish")
	}
	return v, err
}

func TestDecodeSync(t *testing.T) {
	got, err := DecodeSync(`{"d":Date(0),"m":TypedModel({"a":7}),"n":12n}`, json22.ParseOptions{Context: testContext})
	if err != nil {
		t.Fatalf("DecodeSync: %v", err)
	}
	want := map[string]any{
		"d": time.UnixMilli(0).UTC(),
		"m": &typedModel{A: 7},
		"n": big.NewInt(12),
	}
	opt := cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSync_ErrorsAreNotWrapped(t *testing.T) {
	_, err := DecodeSync(`TypedModel({"a":1})`, json22.ParseOptions{})
	var unresolved *json22.UnresolvedTypeError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected *json22.UnresolvedTypeError, got %T", err)
	}
	if IsDecodeError(err) {
		t.Error("sync decode must not wrap errors in DecodeError")
	}
	if err.Error() != "Constructor TypedModel not defined in the context" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestDecodeStreaming_Success(t *testing.T) {
	body := `{"date":Date(1700000000000),"typedModel":TypedModel({"a":42})}`
	resp := response(http.StatusOK, json22.MimeType, strings.NewReader(body))

	task := DecodeStreaming(context.Background(), resp, json22.ParseOptions{Context: testContext})
	got, err := waitTask(t, task)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"date":       time.UnixMilli(1700000000000).UTC(),
		"typedModel": &typedModel{A: 42},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if resp.Text() != body {
		t.Errorf("expected response text to be recorded, got %q", resp.Text())
	}
	if task.Text() != body {
		t.Errorf("expected task text %q, got %q", body, task.Text())
	}
}

func TestDecodeStreaming_EmptyBody(t *testing.T) {
	for _, body := range []io.Reader{strings.NewReader(""), nil} {
		got, err := waitTask(t, DecodeStreaming(context.Background(), response(http.StatusOK, "", body), json22.ParseOptions{}))
		if err != nil || got != nil {
			t.Errorf("expected nil value and no error, got %v %v", got, err)
		}
	}
}

func TestDecodeStreaming_ChunkingInvariance(t *testing.T) {
	body := `{"café":"naïve ✓","at":Date(86400000),"list":[1,2.5,-3e2,true,null],"big":9007199254740993n}`
	opts := json22.ParseOptions{Context: testContext}
	want, err := DecodeSync(body, opts)
	if err != nil {
		t.Fatalf("DecodeSync: %v", err)
	}
	bigEq := cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })

	// Every two-chunk partition, including splits inside multi-byte runes.
	for i := 0; i <= len(body); i++ {
		r := &chunkReader{chunks: []string{body[:i], body[i:]}}
		got, err := waitTask(t, NewDecoder(opts).DecodeStreaming(context.Background(), response(200, "", r)))
		if err != nil {
			t.Fatalf("split at %d: %v", i, err)
		}
		if diff := cmp.Diff(want, got, bigEq); diff != "" {
			t.Fatalf("split at %d: mismatch (-want +got):\n%s", i, diff)
		}
	}

	// One byte per read.
	got, err := waitTask(t, NewDecoder(opts, WithChunkSize(1)).DecodeStreaming(context.Background(), response(200, "", strings.NewReader(body))))
	if err != nil {
		t.Fatalf("byte-wise: %v", err)
	}
	if diff := cmp.Diff(want, got, bigEq); diff != "" {
		t.Errorf("byte-wise mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeStreaming_ErrorEnrichment(t *testing.T) {
	chunks := []string{`{"date":Date(1),`, `"typedModel":TypedModel(`, `{"a":42})}`}
	full := strings.Join(chunks, "")
	resp := response(http.StatusCreated, json22.MimeType, &chunkReader{chunks: append([]string(nil), chunks...)})

	task := DecodeStreaming(context.Background(), resp, json22.ParseOptions{})
	_, err := waitTask(t, task)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	if decodeErr.RawResponse != full {
		t.Errorf("RawResponse = %q, want %q", decodeErr.RawResponse, full)
	}
	if decodeErr.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want %d", decodeErr.StatusCode, http.StatusCreated)
	}
	if !IsContextResolution(err) {
		t.Error("expected a context resolution failure")
	}
	if name, _ := MissingTypeName(err); name != "TypedModel" {
		t.Errorf("expected missing type TypedModel, got %q", name)
	}
	if !strings.Contains(err.Error(), "Constructor TypedModel not defined in the context") {
		t.Errorf("expected codec message in %q", err.Error())
	}
	if task.Text() != "" {
		t.Errorf("expected empty task text after failure, got %q", task.Text())
	}
	if resp.Text() != "" {
		t.Errorf("expected response text to stay unset after failure, got %q", resp.Text())
	}
}

func TestDecodeStreaming_SyntaxError(t *testing.T) {
	_, err := waitTask(t, DecodeStreaming(context.Background(), response(200, "", strings.NewReader(`{"a":`)), json22.ParseOptions{}))
	var syntaxErr *json22.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected wrapped *json22.SyntaxError, got %v", err)
	}
	if IsContextResolution(err) {
		t.Error("syntax errors are not context resolution failures")
	}
}

func TestDecodeStreaming_ReadErrorKeepsPartialText(t *testing.T) {
	readErr := errors.New("connection reset")
	r := &chunkReader{chunks: []string{`{"a":`, `1`}, err: readErr}
	_, err := waitTask(t, DecodeStreaming(context.Background(), response(502, "", r), json22.ParseOptions{}))

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if !errors.Is(err, readErr) {
		t.Error("expected read error to be reachable")
	}
	if decodeErr.RawResponse != `{"a":1` || decodeErr.StatusCode != 502 {
		t.Errorf("unexpected error fields %+v", decodeErr)
	}
}

func TestDecodeStreaming_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := waitTask(t, DecodeStreaming(ctx, response(200, "", strings.NewReader(`{}`)), json22.ParseOptions{}))
	if !errors.Is(err, context.Canceled) || !IsDecodeError(err) {
		t.Errorf("expected DecodeError wrapping context.Canceled, got %v", err)
	}
}

func TestDecodeStreaming_Charset(t *testing.T) {
	// "café" in ISO-8859-1.
	body := "{\"name\":\"caf\xe9\"}"
	got, err := waitTask(t, DecodeStreaming(context.Background(),
		response(200, json22.MimeType+"; charset=ISO-8859-1", strings.NewReader(body)), json22.ParseOptions{}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"name": "café"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = waitTask(t, DecodeStreaming(context.Background(),
		response(200, json22.MimeType+"; charset=x-unknown", strings.NewReader(`"ok"`)), json22.ParseOptions{}))
	if err != nil || got != "ok" {
		t.Errorf("expected utf-8 fallback, got %v %v", got, err)
	}
}

func TestTask_ThenAndDone(t *testing.T) {
	task := DecodeStreaming(context.Background(), response(200, "", strings.NewReader(`[1]`)), json22.ParseOptions{})

	type result struct {
		value any
		err   error
	}
	ch := make(chan result, 1)
	task.Then(func(v any, err error) { ch <- result{v, err} })

	select {
	case r := <-ch:
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if diff := cmp.Diff([]any{float64(1)}, r.value); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Then callback not called")
	}

	select {
	case <-task.Done():
	default:
		t.Error("expected Done to be closed after Then fired")
	}
}

func TestTask_PendingText(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	task := DecodeStreaming(context.Background(), response(200, "", pr), json22.ParseOptions{})
	if task.Text() != "" {
		t.Error("expected empty text while pending")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := task.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected Wait to give up on ctx, got %v", err)
	}
}

func TestDecoder_ParserInterface(t *testing.T) {
	d := NewDecoder(json22.ParseOptions{Context: testContext})

	v, err := d.ParseText(`TypedModel({"a":3})`)
	if err != nil || v.(*typedModel).A != 3 {
		t.Errorf("ParseText: %v %v", v, err)
	}

	done := make(chan any, 1)
	d.ParseStream(context.Background(), response(200, "", strings.NewReader(`NaN`)), func(v any, err error) {
		if err != nil {
			done <- err
			return
		}
		done <- v
	})
	select {
	case v := <-done:
		if f, ok := v.(float64); !ok || f == f {
			t.Errorf("expected NaN, got %v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ParseStream did not call done")
	}
}

func TestDecodeStreaming_Span(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, _ = waitTask(t, DecodeStreaming(context.Background(), response(200, "", strings.NewReader(`[1,2]`)), json22.ParseOptions{}))
	_, _ = waitTask(t, DecodeStreaming(context.Background(), response(500, "", strings.NewReader(`[`)), json22.ParseOptions{}))

	// The span ends after the task resolves.
	deadline := time.Now().Add(5 * time.Second)
	for len(sr.Ended()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	byStatus := map[int64]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		if s.Name() != SpanDecode {
			t.Errorf("unexpected span name %q", s.Name())
		}
		for _, kv := range s.Attributes() {
			if kv.Key == "http.status_code" {
				byStatus[kv.Value.AsInt64()] = s
			}
		}
	}
	ok := byStatus[200]
	if ok == nil {
		t.Fatal("missing span for status 200")
	}
	if !hasAttr(ok.Attributes(), attribute.Int("json22.bytes", 5)) {
		t.Errorf("expected json22.bytes=5, got %v", ok.Attributes())
	}
	failed := byStatus[500]
	if failed == nil || len(failed.Events()) == 0 {
		t.Error("expected the failed decode to record an error event")
	}
}

func hasAttr(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv == want {
			return true
		}
	}
	return false
}

func TestDecoder_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := observability.NewDecodeMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewDecodeMetrics: %v", err)
	}
	d := NewDecoder(json22.ParseOptions{}, WithMetrics(m))

	_, _ = waitTask(t, d.DecodeStreaming(context.Background(), response(200, "", strings.NewReader(`1`))))
	_, _ = waitTask(t, d.DecodeStreaming(context.Background(), response(200, "", strings.NewReader(`{`))))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	if sums["json22.decode.total"] != 2 || sums["json22.decode.failures"] != 1 {
		t.Errorf("unexpected decode counters %v", sums)
	}
}
