// Package echoserver is a small gin server that speaks JSON22. It backs the
// end-to-end tests of the JSON22 client plugin and ships as the json22-echo
// binary for manual interop checks.
//
// Routes (any method):
//
//	/echo   plain JSON {contentType, contentText, accept} describing the request
//	/typed  JSON22 {date, typedModel}
//	/json   the /typed payload as plain JSON, so dates arrive as strings
package echoserver
