package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mcapedit/internal/config"
	"mcapedit/internal/export"
	"mcapedit/internal/format"
	"mcapedit/internal/mcapio"
	"mcapedit/internal/model"
	"mcapedit/internal/view"
)

type exportFlags struct {
	output       string
	topics       []string
	excludes     []string
	start        string
	end          string
	granularity  string
	endExclusive bool
	compression  string
	chunkSize    int64
	force        bool
	useLastDir   bool
	formatFlag   string
}

func newExportCmd(ctx *commandContext) *cobra.Command {
	ef := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export <file> -o <output>",
		Short: "Write a subset of topics and time range to a new container",
		Long: `Export copies the selected topics, optionally narrowed to a time range, into
a new container. Schemas shared by several topics are written once.

--start and --end accept RFC3339 timestamps, integer nanoseconds, or offsets
from the first message such as "+1.5s". The end bound includes the whole
displayed unit (see --granularity) unless --end-exclusive is set.

Use "-" as input to read stdin and as output to write stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, ctx, args[0], ef)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&ef.output, "output", "o", "", "output container path, or - for stdout")
	flags.StringArrayVarP(&ef.topics, "topic", "t", nil, "topic or glob pattern to include (repeatable; default: every topic)")
	flags.StringArrayVarP(&ef.excludes, "exclude", "x", nil, "topic or glob pattern to leave out (repeatable)")
	flags.StringVar(&ef.start, "start", "", "first log time to keep")
	flags.StringVar(&ef.end, "end", "", "last log time to keep")
	flags.StringVar(&ef.granularity, "granularity", "", "resolution of --start/--end (default from config, 1ms)")
	flags.BoolVar(&ef.endExclusive, "end-exclusive", false, "drop messages at or after the displayed --end instant")
	flags.StringVar(&ef.compression, "compression", "", "chunk compression: none, lz4, or zstd (default from config)")
	flags.Int64Var(&ef.chunkSize, "chunk-size", 0, "target chunk size in bytes (default from config)")
	flags.BoolVarP(&ef.force, "force", "f", false, "overwrite an existing output file")
	flags.BoolVar(&ef.useLastDir, "use-last-dir", false, "place a relative output in the directory last saved to")
	flags.StringVar(&ef.formatFlag, "format", "text", "report format: text or json")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(cmd *cobra.Command, ctx *commandContext, input string, ef *exportFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger, err := ctx.logger(cmd)
	if err != nil {
		return err
	}
	logger = logger.With(slog.String("run_id", runID))

	compression, err := model.ParseCompression(firstNonEmpty(ef.compression, cfg.Export.Compression))
	if err != nil {
		return err
	}
	chunkSize := cfg.Export.ChunkSize
	if ef.chunkSize > 0 {
		chunkSize = ef.chunkSize
	}

	granularity, err := cfg.Granularity()
	if err != nil {
		return err
	}
	policy := export.WindowPolicy{Granularity: granularity, EndInclusive: cfg.Export.EndInclusive}
	if ef.granularity != "" {
		g, err := time.ParseDuration(ef.granularity)
		if err != nil || g < 0 {
			return fmt.Errorf("invalid --granularity value: %q", ef.granularity)
		}
		policy.Granularity = g
	}
	if cmd.Flags().Changed("end-exclusive") {
		policy.EndInclusive = !ef.endExclusive
	}

	src, err := ctx.openSource(cmd, input, logger)
	if err != nil {
		return err
	}
	defer src.Close()
	idx := src.index

	topics, err := export.SelectTopics(idx, ef.topics, ef.excludes)
	if err != nil {
		return err
	}

	start, err := parseBound("--start", ef.start, idx.Start)
	if err != nil {
		return err
	}
	end, err := parseBound("--end", ef.end, idx.Start)
	if err != nil {
		return err
	}
	window, err := policy.Resolve(export.Window{Start: idx.Start, End: idx.End}, start, end)
	if err != nil {
		return err
	}

	store, err := ctx.stateStore()
	if err != nil {
		return err
	}
	output := ef.output
	if output != "-" {
		state, err := store.Load()
		if err != nil {
			logger.Warn("state unavailable", slog.String("error", err.Error()))
		}
		output = config.ResolveOutput(output, state.LastSaveDir, ef.useLastDir)
		if err := checkOutput(src.path, output, ef.force); err != nil {
			return err
		}
	}

	opts := mcapio.WriterOptions{
		Profile:     idx.Profile,
		Library:     "mcapedit " + version,
		Compression: compression,
		ChunkSize:   chunkSize,
	}
	var writer *mcapio.Writer
	if output == "-" {
		writer, err = mcapio.NewBufferWriter(opts)
	} else {
		writer, err = mcapio.CreateFile(output, opts)
	}
	if err != nil {
		return err
	}

	logger.Info("export requested",
		slog.String("input", src.path),
		slog.String("output", output),
		slog.Any("topics", topics.Sorted()),
		slog.String("compression", string(compression)),
	)

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newProgressPrinter(cmd.ErrOrStderr())
	began := time.Now()
	stats, runErr := export.Run(runCtx, idx, src.reader, writer, export.Options{
		Topics:          topics,
		Window:          window,
		CheckpointEvery: cfg.Export.CheckpointEvery,
		Checkpoint:      progress.update,
		Logger:          logger,
	})
	progress.finish()
	elapsed := time.Since(began)

	if !settleOutput(output, runErr, logger) {
		return runErr
	}

	var size int64
	reportOut := cmd.OutOrStdout()
	if output == "-" {
		data := writer.Bytes()
		size = int64(len(data))
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		reportOut = cmd.ErrOrStderr()
	} else {
		if info, err := os.Stat(output); err == nil {
			size = info.Size()
		}
		if err := store.RememberSave(output); err != nil {
			logger.Warn("could not remember save directory", slog.String("error", err.Error()))
		}
	}

	report := format.NewExportReport(runID, src.path, output, string(compression), stats, size, elapsed)
	if err := format.WriteExportReport(reportOut, report, ef.formatFlag); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%w; kept %d messages in %s", runErr, stats.MessagesWritten, output)
	}
	return nil
}

// settleOutput reports whether the output of a finished export is kept. A
// cancelled export keeps its well-formed partial file; any other failure
// removes the file.
func settleOutput(output string, runErr error, logger *slog.Logger) bool {
	if runErr == nil || model.Classify(runErr) == model.KindCancelled {
		return true
	}
	if output != "-" {
		if err := os.Remove(output); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("could not remove partial output", slog.String("output", output), slog.String("error", err.Error()))
		}
	}
	return false
}

func parseBound(flag, value string, origin uint64) (*uint64, error) {
	if value == "" {
		return nil, nil
	}
	ns, err := export.ParseInstant(value, origin)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", flag, err)
	}
	return &ns, nil
}

// checkOutput refuses to clobber the input or, without force, any existing file.
func checkOutput(input, output string, force bool) error {
	if output == "" {
		return errors.New("output path is empty")
	}
	if input != "-" {
		inAbs, err1 := filepath.Abs(input)
		outAbs, err2 := filepath.Abs(output)
		if err1 == nil && err2 == nil && inAbs == outAbs {
			return fmt.Errorf("output %s is the input file", output)
		}
	}
	info, err := os.Stat(output)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("check output: %w", err)
	case info.IsDir():
		return fmt.Errorf("output %s is a directory", output)
	case !force:
		return fmt.Errorf("output %s already exists (use --force to overwrite it)", output)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// progressPrinter redraws a single status line on an interactive stderr.
type progressPrinter struct {
	out     io.Writer
	enabled bool
	drawn   bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, enabled: view.IsTerminal(out)}
}

func (p *progressPrinter) update(progress export.Progress) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.out, "\rexported %d messages (log time %d)", progress.Written, progress.LastLogTime) //nolint:errcheck
	p.drawn = true
}

func (p *progressPrinter) finish() {
	if p.drawn {
		fmt.Fprintln(p.out) //nolint:errcheck
	}
}
