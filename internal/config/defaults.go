package config

const (
	defaultConfigPath      = "~/.config/mcapedit/config.toml"
	defaultStateFile       = "~/.local/state/mcapedit/state.toml"
	defaultGranularity     = "1ms"
	defaultCompression     = "zstd"
	defaultChunkSize       = 4 * 1024 * 1024
	defaultCheckpointEvery = 1000
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Export: Export{
			Compression:     defaultCompression,
			ChunkSize:       defaultChunkSize,
			Granularity:     defaultGranularity,
			EndInclusive:    true,
			CheckpointEvery: defaultCheckpointEvery,
			Summary:         "auto",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Paths: Paths{
			StateFile: defaultStateFile,
		},
	}
}
