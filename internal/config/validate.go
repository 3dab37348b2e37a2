package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateCodec(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateNetwork() error {
	for field, raw := range map[string]string{
		"network.manifest_url":   c.Network.ManifestURL,
		"network.asset_base_url": c.Network.AssetBaseURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
		}
	}
	if c.Network.RequestTimeout < 1 || c.Network.RequestTimeout > maxRequestTimeoutSeconds {
		return fmt.Errorf("network.request_timeout must be between 1 and %d seconds", maxRequestTimeoutSeconds)
	}
	if c.Network.RequestsPerSecond < 0 {
		return errors.New("network.requests_per_second must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.Workers < 0 {
		return errors.New("processing.workers must be zero (auto) or positive")
	}
	switch c.Processing.MissingPolicy {
	case MissingPolicyStrict, MissingPolicySkip:
	default:
		return fmt.Errorf("processing.missing_policy must be %q or %q, got %q", MissingPolicyStrict, MissingPolicySkip, c.Processing.MissingPolicy)
	}
	return nil
}

func (c *Config) validateCodec() error {
	if c.Codec.Quality < minVorbisQuality || c.Codec.Quality > maxVorbisQuality {
		return fmt.Errorf("codec.quality must be between %d and %d", minVorbisQuality, maxVorbisQuality)
	}
	if c.Codec.BlockFrames < 0 {
		return errors.New("codec.block_frames must be positive")
	}
	return nil
}

func (c *Config) validateOutput() error {
	name := c.Output.FileName
	if name == "" {
		return nil
	}
	if filepath.Base(name) != name || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("output.file_name must be a bare file name, got %q", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		return fmt.Errorf("output.file_name must end in .zip, got %q", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
