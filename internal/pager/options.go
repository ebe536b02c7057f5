package pager

import (
	"log/slog"

	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/news"
)

const DefaultPageSize = 20

type Option func(*Controller)

// WithScheme selects the partition scheme. The default is keyword, and the
// policy follows the scheme unless WithPolicy is given after it.
func WithScheme(s news.Scheme) Option {
	return func(c *Controller) {
		c.scheme = s
		if s == news.SchemeCategory {
			c.policy = CategoryPolicy()
		} else {
			c.policy = KeywordPolicy()
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithDefault overrides the partition value ViewReady loads.
func WithDefault(value string) Option {
	return func(c *Controller) {
		c.defaultValue = value
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
