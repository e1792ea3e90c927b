package httpclient

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// BearerAuth returns a plugin that sends a bearer token.
func BearerAuth(token string) Plugin {
	return PluginFunc(func(r *OutgoingRequest) {
		r.Set("Authorization", "Bearer "+token)
	})
}

// BasicAuth returns a plugin that sends HTTP Basic credentials.
func BasicAuth(username, password string) Plugin {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return PluginFunc(func(r *OutgoingRequest) {
		r.Set("Authorization", "Basic "+creds)
	})
}

// APIKeyAuth returns a plugin that sends an API key in the X-API-Key header.
func APIKeyAuth(key string) Plugin {
	return APIKeyAuthHeader(key, "X-API-Key")
}

// APIKeyAuthHeader returns a plugin that sends an API key in a custom header.
func APIKeyAuthHeader(key, headerName string) Plugin {
	return PluginFunc(func(r *OutgoingRequest) {
		r.Set(headerName, key)
	})
}

// APIKeyAuthQuery returns a plugin that sends an API key as a query parameter.
func APIKeyAuthQuery(key, paramName string) Plugin {
	return PluginFunc(func(r *OutgoingRequest) {
		r.Query().Set(paramName, key)
	})
}

// RequestID returns a plugin that tags each request with a random
// X-Request-ID unless the caller already set one.
func RequestID() Plugin {
	return PluginFunc(func(r *OutgoingRequest) {
		if r.Header().Get(HeaderRequestID) == "" {
			r.Set(HeaderRequestID, uuid.NewString())
		}
	})
}
