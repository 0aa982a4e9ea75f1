package config

import (
	"errors"
	"fmt"
	"time"

	"mcapedit/internal/logging"
	"mcapedit/internal/model"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := model.ParseCompression(c.Export.Compression); err != nil {
		return fmt.Errorf("export.compression: %w", err)
	}
	if _, err := model.ParseSummaryMethod(c.Export.Summary); err != nil {
		return fmt.Errorf("export.summary: %w", err)
	}
	if c.Export.ChunkSize <= 0 {
		return errors.New("export.chunk_size must be positive")
	}
	if c.Export.CheckpointEvery <= 0 {
		return errors.New("export.checkpoint_every must be positive")
	}
	if _, err := c.Granularity(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported format %q", c.Logging.Format)
	}
	if c.Paths.StateFile == "" {
		return errors.New("paths.state_file must be set")
	}
	return nil
}

// Granularity parses export.granularity, the resolution at which --start and
// --end instants are interpreted.
func (c *Config) Granularity() (time.Duration, error) {
	g, err := time.ParseDuration(c.Export.Granularity)
	if err != nil {
		return 0, fmt.Errorf("export.granularity: %w", err)
	}
	if g < 0 {
		return 0, fmt.Errorf("export.granularity: %q is negative", c.Export.Granularity)
	}
	return g, nil
}
