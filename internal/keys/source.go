package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Source yields the ordered list of API key secrets.
type Source interface {
	Load() ([]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]string, error)

func (f SourceFunc) Load() ([]string, error) { return f() }

// EnvSource reads PREFIX_1, PREFIX_2, ... from the process environment and
// stops at the first missing or blank entry.
type EnvSource struct {
	Prefix string
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

func (s EnvSource) Load() ([]string, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var out []string
	for i := 1; ; i++ {
		v, ok := lookup(fmt.Sprintf("%s_%d", s.Prefix, i))
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

// FileSource reads the same numbered keys from a config file. Dotenv, YAML,
// JSON and TOML are supported through viper; files without a known extension
// are read as dotenv.
type FileSource struct {
	Path   string
	Prefix string
}

func (s FileSource) Load() ([]string, error) {
	v, err := readKeysFile(s.Path)
	if err != nil {
		return nil, err
	}
	var out []string
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s_%d", s.Prefix, i)
		if !v.IsSet(key) {
			break
		}
		val := strings.TrimSpace(v.GetString(key))
		if val == "" {
			break
		}
		out = append(out, val)
	}
	return out, nil
}

func newKeysViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml":
	default:
		v.SetConfigType("env")
	}
	return v
}

func readKeysFile(path string) (*viper.Viper, error) {
	v := newKeysViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading keys file %s: %w", path, err)
	}
	return v, nil
}

// ChainSource returns the result of the first source that yields keys.
// Errors are only reported when no source produced anything.
type ChainSource []Source

func (c ChainSource) Load() ([]string, error) {
	var errs []error
	for _, src := range c {
		secrets, err := src.Load()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(secrets) > 0 {
			return secrets, nil
		}
	}
	return nil, errors.Join(errs...)
}
