// Command ldb is a small front end over the store: it opens the configured
// backend and runs one operation per invocation.
//
//	ldb [flags] set <key> <value>
//	ldb [flags] get <key>
//	ldb [flags] del <key>
//	ldb [flags] list | values | clear
//	ldb [flags] load <file.yaml>
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/rawbytedev/ldb"
	"github.com/rawbytedev/ldb/configs"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	configFlag     = pflag.StringP("config", "c", "", "YAML config file")
	dirFlag        = pflag.StringP("dir", "d", "", "database directory")
	backendFlag    = pflag.StringP("backend", "b", "", "storage backend: badger, pebble or bolt")
	nameFlag       = pflag.StringP("name", "n", "", "database name")
	collectionFlag = pflag.StringP("collection", "s", "", "record collection")
	versionFlag    = pflag.Uint64("schema-version", 0, "schema version to open the database at")
	verboseFlag    = pflag.BoolP("verbose", "v", false, "log store activity to stderr")
)

func main() {
	pflag.Usage = usage
	pflag.Parse()
	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verboseFlag {
		logger, _ = zap.NewDevelopment()
	}

	cfg := configs.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = configs.Load(*configFlag); err != nil {
			fail(err)
		}
	}
	if *dirFlag != "" {
		cfg.Dir = *dirFlag
	}
	if *backendFlag != "" {
		cfg.Backend = *backendFlag
	}
	if *nameFlag != "" {
		cfg.Name = *nameFlag
	}
	if *collectionFlag != "" {
		cfg.Collection = *collectionFlag
	}
	if *versionFlag != 0 {
		cfg.SchemaVersion = *versionFlag
	}

	opener, err := cfg.Opener(logger)
	if err != nil {
		fail(err)
	}
	opts := cfg.Options()
	opts.Logger = logger
	store := ldb.New(opts, opener)

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		fail(err)
	}
	defer store.Close()

	if err := run(ctx, store, args); err != nil {
		fail(err)
	}
}

func run(ctx context.Context, store *ldb.Store, args []string) error {
	switch cmd := args[0]; cmd {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: ldb get <key>")
		}
		value, err := store.Get(ctx, args[1])
		if err != nil {
			return err
		}
		if value != nil {
			fmt.Printf("%s\n", value)
		}
		return nil
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: ldb set <key> <value>")
		}
		return store.Set(ctx, args[1], []byte(args[2]))
	case "del":
		if len(args) != 2 {
			return fmt.Errorf("usage: ldb del <key>")
		}
		return store.Delete(ctx, args[1])
	case "list":
		keys, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	case "values":
		values, err := store.Values(ctx)
		if err != nil {
			return err
		}
		for _, value := range values {
			fmt.Printf("%s\n", value)
		}
		return nil
	case "clear":
		return store.Clear(ctx)
	case "load":
		if len(args) != 2 {
			return fmt.Errorf("usage: ldb load <file.yaml>")
		}
		entries, err := readEntries(args[1])
		if err != nil {
			return err
		}
		return store.SetAll(ctx, entries)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// readEntries parses a flat YAML mapping of keys to string values.
func readEntries(path string) ([]ldb.Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pairs := make(map[string]string)
	if err := yaml.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]ldb.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, ldb.Entry{Key: k, Value: []byte(pairs[k])})
	}
	return entries, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: ldb [flags] <get|set|del|list|values|clear|load> [args]\n\nFlags:\n")
	pflag.PrintDefaults()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "ldb:", err)
	os.Exit(1)
}
