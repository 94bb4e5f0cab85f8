package badgerdb

import (
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Config carries badger-specific tuning.
type Config struct {
	// Dir is the base directory; the database lives in Dir/<name>.
	Dir string
	// Badger overrides the default badger options entirely when set.
	Badger *badger.Options
	// Logger receives badger's internal log output.
	Logger *zap.Logger
}

func DefaultOptions(dir string) Config {
	return Config{Dir: dir}
}
