package extractors

import "log/slog"

// Option configures a Session.
type Option func(*options)

type options struct {
	log  *slog.Logger
	kind Kind
}

// WithLogger sets the logger used for configuration traces and skipped
// fields. Sessions log to slog.Default() otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithKind overrides the sniffed document kind.
func WithKind(kind Kind) Option {
	return func(o *options) { o.kind = kind }
}
