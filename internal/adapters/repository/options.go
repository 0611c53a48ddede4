package repository

import "strings"

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	key   string
	table string
}

// WithKey sets the key under which a local store keeps the score collection.
func WithKey(key string) Option {
	return func(o *options) {
		if key = strings.TrimSpace(key); key != "" {
			o.key = key
		}
	}
}

// WithTable sets the remote table name. A dotted name is schema-qualified.
func WithTable(table string) Option {
	return func(o *options) {
		if table = strings.TrimSpace(table); table != "" {
			o.table = table
		}
	}
}

func newOptions(opts []Option) options {
	o := options{key: DefaultKey, table: DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
