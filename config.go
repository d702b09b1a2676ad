package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigName is looked up next to the source file when no -config
// flag is given.
const DefaultConfigName = "bgc.yml"

// Config holds the settings read from bgc.yml.
type Config struct {
	Path string // empty for the built-in defaults

	// Builtins are installed in the symbol table before analysis. Entries
	// from the file extend DefaultBuiltins and replace same-named ones.
	Builtins []Builtin

	// FailOnDiagnostics makes `bgc tac` stop before generating code when
	// the checker reported anything.
	FailOnDiagnostics bool

	// PrintSymbols makes `bgc check` dump the symbol table.
	PrintSymbols bool
}

// DefaultConfig returns the settings used when no bgc.yml exists.
func DefaultConfig() *Config {
	return &Config{
		Builtins:          DefaultBuiltins(),
		FailOnDiagnostics: true,
	}
}

type configFile struct {
	Builtins []builtinEntry `yaml:"builtins"`
	Check    struct {
		FailOnDiagnostics *bool `yaml:"fail_on_diagnostics"`
	} `yaml:"check"`
	Output struct {
		Symbols bool `yaml:"symbols"`
	} `yaml:"output"`
}

type builtinEntry struct {
	Name    string   `yaml:"name"`
	Returns string   `yaml:"returns"`
	Params  []string `yaml:"params"`
}

// ConfigError aggregates configuration validation failures.
type ConfigError struct {
	Path   string
	Issues []string
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	b.WriteString(":")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadConfig parses and validates the config file at path.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			cerr.Path = absPath
			return nil, cerr
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.Path = absPath
	return cfg, nil
}

// FindConfig loads bgc.yml from dir, falling back to DefaultConfig when the
// file does not exist.
func FindConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, DefaultConfigName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return LoadConfig(path)
}

// ParseConfig decodes bgc.yml content. Unknown keys are rejected. Empty
// input yields the defaults.
func ParseConfig(data []byte) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return raw.toConfig()
}

func (raw *configFile) toConfig() (*Config, error) {
	cfg := DefaultConfig()
	if raw.Check.FailOnDiagnostics != nil {
		cfg.FailOnDiagnostics = *raw.Check.FailOnDiagnostics
	}
	cfg.PrintSymbols = raw.Output.Symbols

	var errs ConfigError
	seen := make(map[string]bool, len(raw.Builtins))
	for i, entry := range raw.Builtins {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("builtins[%d].name must be provided", i))
			continue
		}
		if seen[name] {
			errs.Issues = append(errs.Issues, fmt.Sprintf("builtins[%d]: duplicate builtin %q", i, name))
			continue
		}
		seen[name] = true

		b := Builtin{Name: name, Returns: TypeVoid}
		if entry.Returns != "" {
			t, ok := ParseDataType(entry.Returns)
			if !ok {
				errs.Issues = append(errs.Issues, fmt.Sprintf("builtins[%d].returns: unknown type %q", i, entry.Returns))
			}
			b.Returns = t
		}
		for j, param := range entry.Params {
			t, ok := ParseDataType(param)
			if !ok || t == TypeVoid {
				errs.Issues = append(errs.Issues, fmt.Sprintf("builtins[%d].params[%d]: unknown type %q", i, j, param))
			}
			b.Params = append(b.Params, t)
		}
		cfg.Builtins = withBuiltin(cfg.Builtins, b)
	}
	if len(errs.Issues) > 0 {
		return nil, &errs
	}
	return cfg, nil
}

func withBuiltin(builtins []Builtin, b Builtin) []Builtin {
	for i := range builtins {
		if builtins[i].Name == b.Name {
			builtins[i] = b
			return builtins
		}
	}
	return append(builtins, b)
}
