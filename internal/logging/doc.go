// Package logging provides structured logging for the pool server.
//
// It wraps logrus with a key/value API in the style of log/slog:
//
//	logger, err := logging.NewLogger("/var/log/poolserver", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("connection accepted", "remote", addr)
//	logger.With("pool", "http").Debug("job queued", "job", id)
//
// Entries are JSON and carry the caller position. Use NopLogger in tests.
//
// All types in this package are safe for concurrent use. Child loggers created
// with With share the parent's output and level.
package logging
