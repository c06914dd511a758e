package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration file. Environment variables
// always win over file values.
type FileConfig struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Upload struct {
		MaxMB int `yaml:"max_mb"`
	} `yaml:"upload"`
	FFmpeg struct {
		Path string `yaml:"path"`
	} `yaml:"ffmpeg"`
}

var (
	fileMu   sync.RWMutex
	fileCfg  *FileConfig
	fileOnce sync.Once
)

// Load reads and validates the YAML configuration file at path and makes it
// available to the Get* helpers.
func Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}

	fileMu.Lock()
	fileCfg = cfg
	fileMu.Unlock()
	return nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are built from string literals.
func LoadFromReader(r io.Reader) (*FileConfig, error) {
	cfg := &FileConfig{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil // empty file: all defaults
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values, returning a
// joined error listing every failure found.
func Validate(cfg *FileConfig) error {
	var errs []error
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", cfg.Server.Port))
	}
	if cfg.Upload.MaxMB < 0 {
		errs = append(errs, fmt.Errorf("upload.max_mb %d must not be negative", cfg.Upload.MaxMB))
	}
	return errors.Join(errs...)
}

// loadedFile returns the config file loaded via Load, if any. The
// WAVECLIP_CONFIG path is picked up lazily on first use.
func loadedFile() *FileConfig {
	fileOnce.Do(func() {
		if path := os.Getenv("WAVECLIP_CONFIG"); path != "" {
			if err := Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "waveclip: ignoring config file: %v\n", err)
			}
		}
	})
	fileMu.RLock()
	defer fileMu.RUnlock()
	return fileCfg
}
