package json22

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Constructor rebuilds a typed value from its decoded argument.
type Constructor func(arg any) (any, error)

// Context maps constructor names to constructors. Date is built in and never
// needs to be registered.
type Context map[string]Constructor

// Register adds a constructor and returns the context for chaining.
func (c Context) Register(name string, ctor Constructor) Context {
	c[name] = ctor
	return c
}

// Typed is implemented by values that encode as a constructor call. Either
// receiver kind works, including for values held in maps and struct fields.
type Typed interface {
	JSON22Type() string
}

// Valuer overrides the constructor argument of a Typed value. Without it the
// value's own object encoding is used.
type Valuer interface {
	JSON22Value() any
}

var mapper = jsoniter.ConfigCompatibleWithStandardLibrary

// ConstructorFor returns a constructor that maps the decoded argument onto a
// new *T through its json field tags.
func ConstructorFor[T any]() Constructor {
	return func(arg any) (any, error) {
		raw, err := mapper.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("map argument: %w", err)
		}
		v := new(T)
		if err := mapper.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("map argument: %w", err)
		}
		return v, nil
	}
}
