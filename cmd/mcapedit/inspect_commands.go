package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mcapedit/internal/format"
	"mcapedit/internal/model"
	"mcapedit/internal/store"
	"mcapedit/internal/view"
)

func newInfoCmd(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show container statistics and time range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			src, err := ctx.openSource(cmd, args[0], logger)
			if err != nil {
				return err
			}
			defer src.Close()

			info := format.NewInfo(src.path, src.reader.Size(), src.index)
			return format.WriteInfo(cmd.OutOrStdout(), info, formatFlag)
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "text", "output format: text or json")
	return cmd
}

func newTopicsCmd(ctx *commandContext) *cobra.Command {
	var (
		formatFlag string
		noHeader   bool
		metadata   bool
	)

	cmd := &cobra.Command{
		Use:   "topics <file>",
		Short: "List topics with their schema, encoding, and message count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			src, err := ctx.openSource(cmd, args[0], logger)
			if err != nil {
				return err
			}
			defer src.Close()

			out := cmd.OutOrStdout()
			topics := src.index.Topics()
			if err := format.WriteTopics(out, format.TopicRows(topics), !noHeader, strings.ToLower(formatFlag)); err != nil {
				return err
			}

			if metadata {
				useColor := view.UseColor(ctx.colorChoice(), out)
				for _, info := range topics {
					lines := format.MetadataLines(info.Metadata)
					if len(lines) == 0 {
						continue
					}
					fmt.Fprintln(out, view.Accent(useColor, info.Topic)) //nolint:errcheck
					for _, line := range lines {
						fmt.Fprintf(out, "  %s\n", line) //nolint:errcheck
					}
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for table and plain output")
	flags.BoolVar(&metadata, "metadata", false, "print channel metadata after the listing")
	return cmd
}

func newSchemaCmd(ctx *commandContext) *cobra.Command {
	var (
		formatFlag string
		raw        bool
		wrap       int
		noPager    bool
	)

	cmd := &cobra.Command{
		Use:   "schema <file> <topic>",
		Short: "Print the schema definition of a topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw && cmd.Flags().Changed("format") {
				return errors.New("--raw cannot be used with --format")
			}
			if raw {
				formatFlag = "raw"
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			src, err := ctx.openSource(cmd, args[0], logger)
			if err != nil {
				return err
			}
			defer src.Close()

			return view.ShowSchema(src.index, args[1], view.SchemaOptions{
				Format: formatFlag,
				Color:  ctx.colorChoice(),
				Wrap:   wrap,
				Pager:  !noPager,
				Out:    cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text, raw, or json")
	flags.BoolVar(&raw, "raw", false, "print the schema definition bytes only")
	flags.IntVar(&wrap, "wrap", 0, "wrap definition lines at the given column width")
	flags.BoolVar(&noPager, "no-pager", false, "never page output through $PAGER")
	return cmd
}

func newListCmd(ctx *commandContext) *cobra.Command {
	var (
		topic      string
		afterStr   string
		beforeStr  string
		limit      int
		formatFlag string
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "Summarise every recording under a directory, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			method, err := model.ParseSummaryMethod(cfg.Export.Summary)
			if err != nil {
				return err
			}

			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			var after, before *time.Time
			if afterStr != "" {
				t, err := time.Parse(time.RFC3339, afterStr)
				if err != nil {
					return fmt.Errorf("invalid --after value: %w", err)
				}
				after = &t
			}
			if beforeStr != "" {
				t, err := time.Parse(time.RFC3339, beforeStr)
				if err != nil {
					return fmt.Errorf("invalid --before value: %w", err)
				}
				before = &t
			}

			result, err := store.ListRecordings(store.ListOptions{
				Root:   root,
				Method: method,
				Topic:  topic,
				After:  after,
				Before: before,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			return format.WriteRecordings(cmd.OutOrStdout(), result.Recordings, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&topic, "topic", "", "only list recordings carrying this topic")
	flags.StringVar(&afterStr, "after", "", "include recordings starting on/after the given RFC3339 timestamp")
	flags.StringVar(&beforeStr, "before", "", "include recordings starting on/before the given RFC3339 timestamp")
	flags.IntVar(&limit, "limit", 0, "limit number of recordings returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for table and plain output")
	return cmd
}
