package pool

import "github.com/prometheus/client_golang/prometheus"

// Logger is the logging surface the pool needs. *slog.Logger and the
// module's internal logger both satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type options struct {
	logger     Logger
	onResult   func(Result)
	registerer prometheus.Registerer
}

type Option func(*options)

func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResultHandler registers a callback invoked on the worker goroutine
// after every job, including cancelled ones. It must not block for long and
// must not call Close or CloseNow on the same pool, which would deadlock.
func WithResultHandler(f func(Result)) Option {
	return func(o *options) {
		o.onResult = f
	}
}

// WithRegisterer registers the pool's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func defaultOptions() options {
	return options{logger: nopLogger{}}
}
