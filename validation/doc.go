// Package validation provides struct tag validation backed by
// go-playground/validator and a small programmatic validator that
// collects field errors.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    BaseURL string        `validate:"omitempty,url"`
//	    Timeout time.Duration `validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.OptionalUUID("x_request_id", c.GetHeader("X-Request-ID"))
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
