// Package logger provides structured logging for the auth service using
// zerolog.
//
// Loggers are constructed explicitly and passed to the components that
// need them; a process-wide default exists only for the command entrypoint.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "authd").WithComponent("orchestrator")
//	log.Info("signed in", logger.Fields(logger.FieldAccountID, id))
package logger
