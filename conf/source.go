package conf

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source yields one configuration layer as a pre-parsed map. A source
// returning a nil map contributes nothing; a source returning an error
// aborts the load (malformed required layer).
type Source interface {
	Name() string
	Load() (map[string]any, error)
}

// Static wraps an in-memory map as a layer, typically the built-in
// defaults at the bottom of the chain.
func Static(name string, values map[string]any) Source {
	return staticSource{name: name, values: values}
}

type staticSource struct {
	name   string
	values map[string]any
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Load() (map[string]any, error) {
	return s.values, nil
}

// YAMLFile reads one YAML document as a layer. A missing optional file is
// skipped silently; a missing required file or a malformed document is a
// SourceError.
func YAMLFile(path string, required bool) Source {
	return yamlSource{path: path, required: required}
}

type yamlSource struct {
	path     string
	required bool
}

func (s yamlSource) Name() string { return s.path }

func (s yamlSource) Load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !s.required {
			return nil, nil
		}
		return nil, SourceError{Source: s.path, Cause: err}
	}

	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, SourceError{Source: s.path, Cause: err}
	}
	return out, nil
}

// Dotenv reads .env files and exposes the entries matching the prefix as
// a layer, using the same PREFIX_PATH_SEGMENTS addressing as Env. Missing
// files are skipped; within the list, later files win. Real process
// environment variables belong in a separate Env layer above this one.
func Dotenv(prefix string, paths ...string) Source {
	return dotenvSource{prefix: prefix, paths: paths}
}

type dotenvSource struct {
	prefix string
	paths  []string
}

func (s dotenvSource) Name() string {
	return "dotenv(" + strings.Join(s.paths, ",") + ")"
}

func (s dotenvSource) Load() (map[string]any, error) {
	out := make(map[string]any)
	for _, path := range s.paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, SourceError{Source: path, Cause: err}
		}
		for k, v := range vars {
			if segments, ok := envSegments(s.prefix, k); ok {
				setNested(out, segments, v)
			}
		}
	}
	return out, nil
}

// Env scans the process environment for variables with the given prefix
// and maps PREFIX_SERVER_PORT=9090 to {"server": {"port": "9090"}}.
// Values are string scalars; typed reads go through coercion.
func Env(prefix string) Source {
	return envSource{prefix: prefix}
}

type envSource struct {
	prefix string
}

func (s envSource) Name() string { return "env(" + s.prefix + ")" }

func (s envSource) Load() (map[string]any, error) {
	out := make(map[string]any)
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if segments, ok := envSegments(s.prefix, key); ok {
			setNested(out, segments, value)
		}
	}
	return out, nil
}

// envSegments strips the prefix and splits the remainder into lower-cased
// path segments. Keys containing literal underscores are not addressable
// from the environment; the separator is fixed.
func envSegments(prefix, key string) ([]string, bool) {
	lead := strings.ToUpper(prefix) + "_"
	if !strings.HasPrefix(key, lead) {
		return nil, false
	}
	rest := strings.TrimPrefix(key, lead)
	if rest == "" {
		return nil, false
	}

	parts := strings.Split(strings.ToLower(rest), "_")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	if len(segments) == 0 {
		return nil, false
	}
	return segments, true
}

func setNested(m map[string]any, segments []string, value string) {
	cur := m
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segments[len(segments)-1]] = value
}
