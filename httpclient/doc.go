// Package httpclient provides a configurable HTTP adapter whose requests are
// shaped by plugins.
//
// A Plugin receives an OutgoingRequest right before it is sent and may set
// headers, declare content and accepted types, install a body Serializer and
// install a response Parser. Plugins registered with Use apply to every
// request of that adapter only; Request.Plugins apply to a single request.
// Without plugins the adapter sends exactly the headers and body the caller
// provided.
//
// # Basic Usage
//
//	client, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Timeout: 30 * time.Second,
//	})
//	client.Use(httpclient.BearerAuth("my-token"), json22plugin.New(nil))
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/events",
//	    Body:   map[string]any{"at": time.Now()},
//	})
//	// resp.Data holds the decoded response body.
//
// # Parsers
//
// When a parser is installed and buffering is forced, the response body is
// streamed into the parser and Response.Data carries its result. Without
// forced buffering the body is read first and parsed synchronously. Parser
// failures surface as *Error with Code ErrCodeDecode.
package httpclient
