package ldb

import "go.uber.org/zap"

// Defaults applied by New when the corresponding Options field is zero.
const (
	DefaultName          = "ldb"
	DefaultSchemaVersion = 1
	DefaultCollection    = "s"
)

// Options configures a Store. The zero value is usable.
type Options struct {
	// Name is the database name handed to the engine.
	Name string
	// SchemaVersion is the schema version the database is opened at.
	SchemaVersion uint64
	// Collection is the record collection all operations run against.
	Collection string
	// Logger receives store lifecycle logs. Defaults to a nop logger.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.SchemaVersion == 0 {
		o.SchemaVersion = DefaultSchemaVersion
	}
	if o.Collection == "" {
		o.Collection = DefaultCollection
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
