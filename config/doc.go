// Package config loads service configuration with Viper.
//
// LoadConfig looks for config.yml and .env files in the usual places
// relative to the working directory (./cmd/<service>, ./config, .),
// reads the YAML first, then lets environment variables override it.
// A variable such as JSON22_SERVER_ADDR overrides server.addr when the
// loader runs with WithEnvPrefix("JSON22").
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Server ServerConfig  `yaml:"server" mapstructure:"server"`
//	}
//
//	var cfg AppConfig
//	err := config.LoadConfig("json22-echo", &cfg, config.WithEnvPrefix("JSON22"))
package config
