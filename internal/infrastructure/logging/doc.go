// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The server logs to stdout. CLI commands log to stderr so that documents
// and console output printed to stdout can be piped.
//
// Example Usage:
//
//	logger, err := logging.New(logging.FromSettings(cfg.Logging, logging.Stdout))
//	if err != nil {
//		return err
//	}
//	logger.Info("Server starting", zap.String("port", cfg.Server.Port))
//	sandboxLog := logger.Component("sandbox")
package logging
