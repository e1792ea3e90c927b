package echoserver

import (
	"time"

	"github.com/kbukum/gokit-json22/json22"
)

// TypedModel travels as TypedModel({...}) in JSON22 bodies.
type TypedModel struct {
	A int  `json:"a"`
	B *int `json:"b,omitempty"`
}

func (TypedModel) JSON22Type() string { return "TypedModel" }

// Payload is the body served by /typed and /json.
type Payload struct {
	Date       time.Time  `json:"date"`
	TypedModel TypedModel `json:"typedModel"`
}

// EchoResult describes the request /echo received.
type EchoResult struct {
	ContentType string `json:"contentType,omitempty"`
	ContentText string `json:"contentText"`
	Accept      string `json:"accept,omitempty"`
}

// Context returns a parse context that resolves TypedModel.
func Context() json22.Context {
	return json22.Context{}.Register("TypedModel", json22.ConstructorFor[TypedModel]())
}
