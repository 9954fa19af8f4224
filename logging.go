package datagrid

import "github.com/goliatone/go-datagrid/pkg/rules"

// Logger receives structured log lines from a grid. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// evaluatorLogger reports rule evaluations at debug level, failures at warn.
func evaluatorLogger(logger Logger, panel string) rules.EvaluatorLogger {
	return rules.EvaluatorLoggerFunc(func(event rules.EvaluatorLogEvent) {
		args := []any{
			"panel", panel,
			"engine", event.Engine,
			"expr", event.Expr,
			"scope", event.Scope,
			"duration", event.Duration,
		}
		if event.Err != nil {
			logger.Warn("datagrid: rule evaluation failed", append(args, "error", event.Err)...)
			return
		}
		logger.Debug("datagrid: rule evaluated", args...)
	})
}
