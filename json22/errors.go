package json22

import (
	"fmt"
	"reflect"
)

// SyntaxError reports malformed JSON22 input.
type SyntaxError struct {
	// Offset is the byte offset in the input where the error was detected.
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json22: %s at offset %d", e.Msg, e.Offset)
}

// UnresolvedTypeError reports a constructor call whose name is missing from
// the parse context.
type UnresolvedTypeError struct {
	Name string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("Constructor %s not defined in the context", e.Name)
}

// ConstructorError wraps a failure returned by a registered constructor.
type ConstructorError struct {
	Name string
	Err  error
}

func (e *ConstructorError) Error() string {
	return fmt.Sprintf("json22: constructor %s: %v", e.Name, e.Err)
}

func (e *ConstructorError) Unwrap() error { return e.Err }

// UnsupportedTypeError is returned by Marshal for values it cannot encode.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return "json22: unsupported type: " + e.Type.String()
}
