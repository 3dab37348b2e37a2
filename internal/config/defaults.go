package config

import "runtime"

const (
	defaultConfigPath        = "~/.config/mineardmg/config.toml"
	projectConfigName        = "mineardmg.toml"
	defaultManifestURL       = "https://launchermeta.mojang.com/mc/game/version_manifest.json"
	defaultAssetBaseURL      = "https://resources.download.minecraft.net"
	defaultRequestTimeout    = 30
	defaultUserAgent         = "mineardmg/dev"
	defaultMissingPolicy     = MissingPolicyStrict
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultVorbisQuality     = 5
	defaultBlockFrames       = 4096
	defaultOutputDir         = "."
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	maxVorbisQuality         = 10
	minVorbisQuality         = -1
	maxRequestTimeoutSeconds = 3600
)

// Missing-result policies accepted by processing.missing_policy.
const (
	MissingPolicyStrict = "strict"
	MissingPolicySkip   = "skip"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Network: Network{
			ManifestURL:    defaultManifestURL,
			AssetBaseURL:   defaultAssetBaseURL,
			RequestTimeout: defaultRequestTimeout,
			UserAgent:      defaultUserAgent,
		},
		Processing: Processing{
			MissingPolicy: defaultMissingPolicy,
		},
		Codec: Codec{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Quality:       defaultVorbisQuality,
			BlockFrames:   defaultBlockFrames,
		},
		Output: Output{
			Dir: defaultOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// WorkerCount returns the configured pool size, falling back to the CPU count.
func (c *Config) WorkerCount() int {
	if c.Processing.Workers > 0 {
		return c.Processing.Workers
	}
	return max(runtime.NumCPU(), 1)
}
