package logging

import "go.uber.org/zap"

// WithQuery creates a logger with query context. Use this so every log line
// produced while executing one statement carries its id.
//
// Example:
//
//	log := logging.WithQuery(queryID)
//	log.Infow("plan chosen", "cost", cost)
func WithQuery(queryID int) *zap.SugaredLogger {
	return GetLogger().With("query_id", queryID)
}

// WithFilter creates a logger with table-filter context.
//
// Example:
//
//	log := logging.WithFilter(f.Alias())
//	log.Debugw("index selected", "index", idx.Name())
func WithFilter(alias string) *zap.SugaredLogger {
	return GetLogger().With("filter", alias)
}

// WithTable creates a logger with table context.
func WithTable(tableName string) *zap.SugaredLogger {
	return GetLogger().With("table", tableName)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("optimizer")
//	log.Info("join order search started")
func WithComponent(component string) *zap.SugaredLogger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
func WithError(err error) *zap.SugaredLogger {
	return GetLogger().With("error", err.Error())
}
