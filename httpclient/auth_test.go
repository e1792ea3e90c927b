package httpclient

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestBearerAuth(t *testing.T) {
	req := NewOutgoingRequest(http.MethodGet)
	BearerAuth("tok123").Configure(req)
	if got := req.Header().Get("Authorization"); got != "Bearer tok123" {
		t.Errorf("got %q, want %q", got, "Bearer tok123")
	}
}

func TestBasicAuth(t *testing.T) {
	req := NewOutgoingRequest(http.MethodGet)
	BasicAuth("user", "pass").Configure(req)
	// base64("user:pass") = "dXNlcjpwYXNz"
	if got := req.Header().Get("Authorization"); got != "Basic dXNlcjpwYXNz" {
		t.Errorf("got %q, want %q", got, "Basic dXNlcjpwYXNz")
	}
}

func TestAPIKeyAuth(t *testing.T) {
	req := NewOutgoingRequest(http.MethodGet)
	APIKeyAuth("key-abc").Configure(req)
	if got := req.Header().Get("X-API-Key"); got != "key-abc" {
		t.Errorf("got %q, want %q", got, "key-abc")
	}

	custom := NewOutgoingRequest(http.MethodGet)
	APIKeyAuthHeader("key-xyz", "X-Custom-Key").Configure(custom)
	if got := custom.Header().Get("X-Custom-Key"); got != "key-xyz" {
		t.Errorf("got %q, want %q", got, "key-xyz")
	}
}

func TestAPIKeyAuthQuery(t *testing.T) {
	req := NewOutgoingRequest(http.MethodGet)
	APIKeyAuthQuery("key-q", "api_key").Configure(req)
	if got := req.Query().Get("api_key"); got != "key-q" {
		t.Errorf("got %q, want %q", got, "key-q")
	}
	if len(req.Header()) != 0 {
		t.Errorf("expected no headers, got %v", req.Header())
	}
}

func TestRequestID(t *testing.T) {
	req := NewOutgoingRequest(http.MethodGet)
	RequestID().Configure(req)
	id := req.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a UUID request id, got %q", id)
	}

	preset := NewOutgoingRequest(http.MethodGet)
	preset.Set(HeaderRequestID, "caller-id")
	RequestID().Configure(preset)
	if got := preset.Header().Get(HeaderRequestID); got != "caller-id" {
		t.Errorf("expected caller id to be kept, got %q", got)
	}
}
