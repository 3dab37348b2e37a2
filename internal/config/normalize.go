package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeNetwork(); err != nil {
		return err
	}
	if err := c.normalizeProcessing(); err != nil {
		return err
	}
	c.normalizeCodec()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeNetwork() error {
	if value, ok := os.LookupEnv("MINEARDMG_ASSET_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Network.AssetBaseURL = value
	}
	c.Network.ManifestURL = strings.TrimSpace(c.Network.ManifestURL)
	if c.Network.ManifestURL == "" {
		c.Network.ManifestURL = defaultManifestURL
	}
	c.Network.AssetBaseURL = strings.TrimRight(strings.TrimSpace(c.Network.AssetBaseURL), "/")
	if c.Network.AssetBaseURL == "" {
		c.Network.AssetBaseURL = defaultAssetBaseURL
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = defaultRequestTimeout
	}
	c.Network.UserAgent = strings.TrimSpace(c.Network.UserAgent)
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = defaultUserAgent
	}
	return nil
}

func (c *Config) normalizeProcessing() error {
	if value, ok := os.LookupEnv("MINEARDMG_WORKERS"); ok && strings.TrimSpace(value) != "" {
		workers, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("MINEARDMG_WORKERS: %w", err)
		}
		c.Processing.Workers = workers
	}
	c.Processing.MissingPolicy = strings.ToLower(strings.TrimSpace(c.Processing.MissingPolicy))
	if c.Processing.MissingPolicy == "" {
		c.Processing.MissingPolicy = defaultMissingPolicy
	}
	return nil
}

func (c *Config) normalizeCodec() {
	c.Codec.FFmpegBinary = strings.TrimSpace(c.Codec.FFmpegBinary)
	if c.Codec.FFmpegBinary == "" {
		c.Codec.FFmpegBinary = defaultFFmpegBinary
	}
	c.Codec.FFprobeBinary = strings.TrimSpace(c.Codec.FFprobeBinary)
	if c.Codec.FFprobeBinary == "" {
		c.Codec.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Codec.BlockFrames == 0 {
		c.Codec.BlockFrames = defaultBlockFrames
	}
}

func (c *Config) normalizeOutput() error {
	var err error
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = defaultOutputDir
	}
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	c.Output.FileName = strings.TrimSpace(c.Output.FileName)
	return nil
}

func (c *Config) normalizeLogging() error {
	if value, ok := os.LookupEnv("MINEARDMG_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
