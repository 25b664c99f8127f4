package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Source looks up a single variable.
type Source func(name string) (string, bool)

// Resolver reads configuration values from an ordered list of sources.
// The first source that defines a name wins.
type Resolver struct {
	sources []Source
}

// NewResolver creates a resolver over the given sources, highest priority first.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// DefaultResolver resolves host bindings first, then the process environment,
// then the .env file values, then the config file env map.
func DefaultResolver(bindings, dotenv, fileEnv map[string]string) *Resolver {
	return NewResolver(
		MapSource(bindings),
		os.LookupEnv,
		MapSource(dotenv),
		MapSource(fileEnv),
	)
}

// MapSource adapts a map to a Source. A nil map defines nothing.
func MapSource(m map[string]string) Source {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Get returns the value of name, or def when no source defines it.
func (r *Resolver) Get(name, def string) string {
	if r == nil {
		return def
	}
	for _, src := range r.sources {
		if v, ok := src(name); ok {
			return v
		}
	}
	return def
}

// First returns the value of the first name defined by any source, or def.
func (r *Resolver) First(names []string, def string) string {
	for _, name := range names {
		if v := r.Get(name, ""); v != "" {
			return v
		}
	}
	return def
}

// Bindings flattens all sources into one map with the same precedence as
// DefaultResolver. Used to expose variables to scripts.
func Bindings(bindings, dotenv, fileEnv map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range []map[string]string{fileEnv, dotenv} {
		for k, v := range m {
			out[k] = v
		}
	}
	for _, env := range os.Environ() {
		if k, v, ok := strings.Cut(env, "="); ok {
			out[k] = v
		}
	}
	for k, v := range bindings {
		out[k] = v
	}
	return out
}

// LoadDotEnv reads a .env file. A missing default file is not an error;
// a missing explicitly requested file is.
func LoadDotEnv(path string, explicit bool) (map[string]string, error) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("env file %s: %w", path, err)
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return values, nil
}
