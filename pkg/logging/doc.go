// Package logging provides a process-wide structured logger for joindb.
//
// The package wraps [go.uber.org/zap] and exposes a single global logger
// instance that is initialized once and then retrieved via GetLogger. All
// subsystems should obtain a logger through this package rather than
// constructing their own zap loggers, so that log level and output
// destination are controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup,
// before any goroutines that might call GetLogger are spawned:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level console logs to stderr.
//
// # Retrieving the logger
//
// GetLogger lazily falls back to the defaults, so library code may log even
// when the host process never called Init.
package logging
