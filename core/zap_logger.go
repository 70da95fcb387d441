package core

import "go.uber.org/zap"

// Logger is the structured logging interface every pool-facing component
// (workers, PanicHandler, RejectedTaskHandler, Terminate/Join warnings)
// logs through. Implementations must be safe to call concurrently, since
// every worker goroutine may log at once.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a key-value pair attached to a log line. WorkerField and
// PriorityField below are the two shapes every log call site in this
// package actually reaches for; F remains for anything else.
type Field struct {
	Key   string
	Value any
}

// F creates an ad-hoc Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// WorkerField names the worker a log line pertains to, the single most
// common field across worker.go, pool.go, and interfaces.go's default
// handlers.
func WorkerField(workerName string) Field {
	return Field{Key: "worker", Value: workerName}
}

// PriorityField renders a capsule's TaskPriority as its log-level-adjacent
// string name rather than its bare int value, so a log line reads
// priority=user_blocking instead of priority=2.
func PriorityField(p TaskPriority) Field {
	return Field{Key: "priority", Value: p.String()}
}

// String renders a TaskPriority for logging and metric labels.
func (p TaskPriority) String() string {
	switch p {
	case TaskPriorityBestEffort:
		return "best_effort"
	case TaskPriorityUserVisible:
		return "user_visible"
	case TaskPriorityUserBlocking:
		return "user_blocking"
	default:
		return "unknown"
	}
}

// NoOpLogger discards every log line. It is the pool's own default (see
// defaultPoolConfig): the teacher's own DefaultTaskSchedulerConfig defaults
// to NewNoOpLogger() the same way ("Default: no logging"), leaving the
// zap-backed ZapLogger/NewProductionZapLogger as an explicit opt-in via
// WithLogger rather than an always-on default a library imposes on callers.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}

// ZapLogger adapts a *zap.Logger to Logger, grounded on the zap-based
// structured logging convention observed across the corpus
// (kennyzhu2013-gocommon's go.mod). It is the production Logger a caller
// wires in via WithLogger when NoOpLogger's silence isn't wanted.
type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger wraps an existing *zap.Logger.
func NewZapLogger(z *zap.Logger) *ZapLogger {
	return &ZapLogger{z: z}
}

// NewProductionZapLogger builds a ZapLogger from zap's production
// configuration, falling back to a no-op zap logger if construction fails
// (which happens only under misconfigured sinks/encoders, not at runtime).
func NewProductionZapLogger() *ZapLogger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return &ZapLogger{z: z}
}

func toZapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZapFields(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZapFields(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZapFields(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZapFields(fields)...) }

var _ Logger = (*ZapLogger)(nil)
var _ Logger = (*NoOpLogger)(nil)
