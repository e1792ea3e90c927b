package echoserver

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gokit-json22/validation"
)

// Config holds echo server configuration.
type Config struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" validate:"required"`
	Mode         string        `yaml:"mode" mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	// MaxBodyBytes caps request bodies read by the handlers.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`
}

// ApplyDefaults sets defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Mode == "" {
		c.Mode = gin.ReleaseMode
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20
	}
}

func (c *Config) Validate() error {
	return validation.Validate(c)
}
