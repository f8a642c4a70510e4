// Package secrets looks up provider credentials from a secrets store and
// exports them into the process environment.
package secrets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// ErrNotFound is returned by a Store when it has no value for a key.
var ErrNotFound = errors.New("secrets: not found")

// ProviderKeys are the credential names looked up at initialization.
var ProviderKeys = []string{
	"OPENAI_API_KEY",
	"ANTHROPIC_API_KEY",
	"GEMINI_API_KEY",
	"XAI_API_KEY",
}

// Store is a read-only source of named secrets.
type Store interface {
	Get(key string) (string, error)
}

// Map is an in-memory Store.
type Map map[string]string

// Get returns the value for key or ErrNotFound.
func (m Map) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

// DotEnv is a Store backed by a dotenv file.
type DotEnv struct {
	path   string
	values Map
}

// NewDotEnv reads the dotenv file at path. A missing file yields an empty
// store, so every lookup reports ErrNotFound.
func NewDotEnv(path string) (*DotEnv, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return &DotEnv{path: path, values: Map{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("secrets: read %s: %w", path, err)
	}

	return &DotEnv{path: path, values: values}, nil
}

// Path returns the file the store was read from.
func (d *DotEnv) Path() string { return d.path }

// Get returns the value for key or ErrNotFound.
func (d *DotEnv) Get(key string) (string, error) {
	return d.values.Get(key)
}

// Populate looks up each key in store and exports found values through
// setenv. Lookup failures are logged at debug level and skipped; a failing
// setenv is logged as a warning. It returns the keys that were exported, in
// the order given.
func Populate(store Store, keys []string, setenv func(key, value string) error, log *slog.Logger) []string {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var loaded []string

	for _, key := range keys {
		value, err := store.Get(key)
		if err != nil {
			log.Debug("secret absent", "key", key, "error", err)
			continue
		}

		if err := setenv(key, value); err != nil {
			log.Warn("set environment variable", "key", key, "error", err)
			continue
		}

		loaded = append(loaded, key)
	}

	return loaded
}
