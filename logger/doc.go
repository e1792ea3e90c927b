// Package logger provides structured logging backed by zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logger:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("json22plugin")
//	log.Info("response decoded", logger.Fields("status", 200, "bytes", 512))
package logger
