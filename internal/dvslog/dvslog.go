// Package dvslog wires a component-scoped *logrus.Entry into a
// context.Context, the way the teacher's context package carries a Logger
// interface value, adapted to stdlib context.Context and a concrete logrus
// type rather than a hand-rolled Logger interface.
package dvslog

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// WithComponent returns a context carrying a logger scoped to component,
// inheriting fields already attached to ctx's logger.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, loggerKey{}, FromContext(ctx).WithField("component", component))
}

// FromContext returns the logger attached to ctx, or the package default
// logger if none was attached.
func FromContext(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(base)
}

// SetLevel sets the verbosity of the package-default logger.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}
