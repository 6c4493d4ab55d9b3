// Package logger provides structured logging on top of zerolog.
//
// Loggers are cheap values scoped with WithComponent and WithFields. The
// extraction pipeline tags its records with the field constants in this
// package (attempt, frame_index, emission, ...) so logs from one extraction
// can be filtered together.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("structured").WithComponent("extractor")
//	log.Info("attempt finished", logger.Fields(logger.FieldAttempt, 2))
package logger
