package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// user-tunable defaults for the editing engine and CLI
type Config struct {
	// span given to cues inserted without an explicit stop time
	DefaultCueLengthMS int `yaml:"default_cue_length_ms"`
	// write results back to the input file instead of stdout
	WriteInPlace bool `yaml:"write_in_place"`
	// optional rotated log file
	LogFile string `yaml:"log_file"`
}

func Default() Config {
	return Config{
		DefaultCueLengthMS: 1000,
		WriteInPlace:       true,
	}
}

// DefaultPath returns the conventional config location, or "" when the
// user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "subcue", "config.yaml")
}

// Load reads path on top of the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// an empty file decodes to no document at all
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.DefaultCueLengthMS <= 0 {
		cfg.DefaultCueLengthMS = Default().DefaultCueLengthMS
	}
	return cfg, nil
}
