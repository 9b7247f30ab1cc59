package model

import "github.com/dshills/docmodel/internal/logging"

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for applied operations.
func WithLogger(l *logging.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.log = l.WithComponent("document")
		}
	}
}

// WithVersion sets the starting document version. History starts at the
// same version.
func WithVersion(v int) Option {
	return func(d *Document) {
		d.version = v
	}
}

// WithRoots creates the named roots up front.
func WithRoots(names ...string) Option {
	return func(d *Document) {
		d.initialRoots = append(d.initialRoots, names...)
	}
}
