// Package config loads texconv settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/erinpentecost/texcodec/internal/tex"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid value")

// Config is the on-disk settings file. Zero fields fall back to Default.
type Config struct {
	// Orientation is "top-down" or "bottom-up".
	Orientation string `yaml:"orientation"`
	// Workers bounds how many files are converted at once.
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`
	// JPEGQuality is 1-100.
	JPEGQuality int `yaml:"jpeg_quality"`
	// OutputExtension is used by convert when --ext is not given.
	OutputExtension string `yaml:"output_extension"`
}

func Default() Config {
	return Config{
		Orientation:     "top-down",
		Workers:         runtime.NumCPU(),
		LogLevel:        "info",
		JPEGQuality:     tex.DefaultJPEGQuality,
		OutputExtension: ".png",
	}
}

// Load reads path. A missing file is not an error and yields Default.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected.
func Parse(raw []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, err := tex.ParseOrientation(c.Orientation); err != nil {
		return fmt.Errorf("%w: orientation %q", ErrInvalid, c.Orientation)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg_quality %d", ErrInvalid, c.JPEGQuality)
	}
	if !tex.IsKnownExtension(c.OutputExtension) {
		return fmt.Errorf("%w: output_extension %q", ErrInvalid, c.OutputExtension)
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

func (c Config) DecodeOptions() tex.DecodeOptions {
	o, _ := tex.ParseOrientation(c.Orientation)
	return tex.DecodeOptions{Orientation: o}
}

func (c Config) EncodeOptions() tex.EncodeOptions {
	return tex.EncodeOptions{JPEGQuality: c.JPEGQuality}
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
