package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mcapedit/internal/config"
	"mcapedit/internal/logging"
	"mcapedit/internal/mcapio"
	"mcapedit/internal/model"
	"mcapedit/internal/summary"
	"mcapedit/internal/view"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
	summary   string
	color     bool
	noColor   bool
}

// commandContext carries what every subcommand shares: flags, configuration,
// the logger, and the persisted directory state.
type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, resolved, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags.logLevel != "" {
			cfg.Logging.Level = c.flags.logLevel
		}
		if c.flags.logFormat != "" {
			cfg.Logging.Format = c.flags.logFormat
		}
		if c.flags.summary != "" {
			cfg.Export.Summary = c.flags.summary
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
}

func (c *commandContext) stateStore() (*config.StateStore, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return config.NewStateStore(cfg.Paths.StateFile), nil
}

func (c *commandContext) colorChoice() view.ColorChoice {
	switch {
	case c.flags.color:
		return view.ColorAlways
	case c.flags.noColor:
		return view.ColorNever
	default:
		return view.ColorAuto
	}
}

// source is an opened container together with its summary index.
type source struct {
	path   string
	reader *mcapio.Reader
	index  *summary.Index
}

func (s *source) Close() error { return s.reader.Close() }

// openSource opens arg ("-" reads stdin into memory), builds its index, and
// remembers the directory it was loaded from.
func (c *commandContext) openSource(cmd *cobra.Command, arg string, logger *slog.Logger) (*source, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	method, err := model.ParseSummaryMethod(cfg.Export.Summary)
	if err != nil {
		return nil, err
	}

	var (
		path   string
		reader *mcapio.Reader
		store  *config.StateStore
	)
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		path = "-"
		reader, err = mcapio.OpenBytes(data)
		if err != nil {
			return nil, err
		}
	} else {
		if store, err = c.stateStore(); err != nil {
			return nil, err
		}
		state, err := store.Load()
		if err != nil {
			logger.Warn("state unavailable", slog.String("error", err.Error()))
		}
		path = config.ResolveInput(arg, state.LastLoadDir)
		reader, err = mcapio.OpenFile(path)
		if err != nil {
			return nil, err
		}
	}

	idx, err := summary.Build(reader, method)
	if err != nil {
		reader.Close() //nolint:errcheck
		return nil, err
	}
	if ierr := reader.IndexErr(); ierr != nil {
		logger.Warn("summary section unusable; statistics rebuilt by scanning",
			slog.String("path", path),
			slog.String("error", ierr.Error()),
		)
	}
	logger.Debug("container opened",
		slog.String("path", path),
		slog.String("summary", string(method)),
		slog.Int("topics", len(idx.TopicNames())),
		slog.Uint64("messages", idx.MessageCount),
	)

	if store != nil {
		if err := store.RememberLoad(path); err != nil {
			logger.Warn("could not remember load directory", slog.String("error", err.Error()))
		}
	}
	return &source{path: path, reader: reader, index: idx}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
