package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "CIVICD_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// ErrFileTooLarge indicates the config file exceeds the size cap.
var ErrFileTooLarge = errors.New("config file too large")

// Load reads configuration from an optional YAML file and CIVICD_
// environment variables, then validates the result.
//
// Precedence (highest to lowest):
//  1. Environment variables (CIVICD_SERVER__ADDR, ...)
//  2. YAML config file
//  3. Defaults from Default()
//
// An empty path skips the file entirely; a non-empty path must name a
// readable file. Environment variables map to config keys with a double
// underscore as the nesting separator, so single underscores survive in
// field names:
//
//	CIVICD_SERVER__ADDR            -> server.addr
//	CIVICD_BACKEND__BASE_URL       -> backend.base_url
//	CIVICD_RETRIEVAL__QDRANT__HOST -> retrieval.qdrant.host
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	// Unmarshal over a fully defaulted struct so keys absent from both
	// sources keep their defaults, including booleans that default true.
	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// envKey maps CIVICD_SECTION__FIELD_NAME to section.field_name.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// readConfigFile reads the file through a single descriptor so the size
// check and the read see the same file.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("%s: %w (%d bytes, max %d)", path, ErrFileTooLarge, info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return content, nil
}
