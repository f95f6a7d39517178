// Package logger provides structured logging backed by zerolog.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "httpcall").WithComponent("httpclient")
//	log.Debug("request sent", logger.Fields("method", "GET", "status", 200))
package logger
