// Package json22plugin negotiates the JSON22 format for httpclient requests.
//
// The plugin configures each outgoing request before it is sent: POST, PUT
// and PATCH bodies are serialized as JSON22 with a matching Content-Type, and
// every request declares JSON22 as its accepted type, forces full-body
// buffering and installs a streaming decoder for the response.
//
//	client, _ := httpclient.New(httpclient.Config{BaseURL: srv.URL})
//	client.Use(json22plugin.New(&json22plugin.Config{
//	    ParseOptions: json22.ParseOptions{
//	        Context: json22.Context{"TypedModel": json22.ConstructorFor[TypedModel]()},
//	    },
//	}))
//
// The decoder accumulates the streamed body in arrival order and decodes it
// once the stream ends. Failures are reported as *DecodeError carrying the
// full received text and the response status code.
//
// The decoder can also be used directly: DecodeSync decodes text that is
// already complete, DecodeStreaming returns a Task that resolves once the
// stream has been drained and decoded.
package json22plugin
