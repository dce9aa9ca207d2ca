package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// envFlags maps flag names to the environment variables that supply them
// when they are absent from the command line.
var envFlags = map[string]string{
	"config":     "HTTPXML_CONFIG_PATH",
	"log-level":  "HTTPXML_LOG_LEVEL",
	"log-format": "HTTPXML_LOG_FORMAT",
	"raw":        "HTTPXML_RAW_BODY",
	"timeout":    "HTTPXML_TIMEOUT",
	"metrics":    "HTTPXML_METRICS",
}

// applyEnv sets flags not given on the command line from their environment
// variables. Values go through flag.Value.Set, so a malformed boolean or
// duration is an error rather than silently ignored.
func applyEnv(fs *flag.FlagSet, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		key, ok := envFlags[f.Name]
		if !ok || given[f.Name] {
			return
		}
		value, ok := lookup(key)
		if !ok || value == "" {
			return
		}
		if err := fs.Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	})
	return errors.Join(errs...)
}
