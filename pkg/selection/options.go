package selection

import (
	"io"

	"github.com/charmbracelet/log"
)

const (
	// DefaultTolerance is the round-trip drift accepted without correction.
	DefaultTolerance = 1

	// DefaultMaxSentenceSpan bounds sentence expansion. A sentence
	// expansion whose result is this long or longer is skipped.
	DefaultMaxSentenceSpan = 500
)

// Option configures Validate.
type Option func(*options)

type options struct {
	logger          *log.Logger
	tolerance       int
	maxSentenceSpan int
}

func defaultOptions() options {
	return options{
		logger:          log.New(io.Discard),
		tolerance:       DefaultTolerance,
		maxSentenceSpan: DefaultMaxSentenceSpan,
	}
}

// WithLogger sends validation tracing to logger at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTolerance sets the drift tolerance. Negative values are ignored.
func WithTolerance(tolerance int) Option {
	return func(o *options) {
		if tolerance >= 0 {
			o.tolerance = tolerance
		}
	}
}

// WithMaxSentenceSpan sets the sentence expansion limit. Values below 1
// are ignored.
func WithMaxSentenceSpan(span int) Option {
	return func(o *options) {
		if span > 0 {
			o.maxSentenceSpan = span
		}
	}
}
