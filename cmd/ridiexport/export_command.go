package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ridiexport/internal/config"
	"ridiexport/internal/drm"
	"ridiexport/internal/exporter"
	"ridiexport/internal/library"
	"ridiexport/internal/preflight"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var outputDir string
	var overwrite bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "export [book-id...]",
		Short: "Decrypt downloaded books into the output directory",
		Long: "Exports the given books, or every downloaded book with --all, for the\n" +
			"active account. Each book is written as <title>.<ext>; a failing book is\n" +
			"reported and the rest of the batch continues. Interrupt with Ctrl-C to stop\n" +
			"after the current book.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("specify book ids or --all (not both)")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			active, err := ctx.activeCredential()
			if err != nil {
				return err
			}
			scanner, err := ctx.scanner()
			if err != nil {
				return err
			}

			books, err := scanner.Scan(active.UserID)
			if err != nil {
				return err
			}
			if !all {
				if books, err = library.Select(books, args); err != nil {
					return err
				}
			}
			if len(books) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No downloaded books to export for %s\n", active.Label())
				return nil
			}

			target, err := resolveOutputDir(cfg, outputDir)
			if err != nil {
				return err
			}
			if check := preflight.CheckDirectoryAccess("Output directory", target); !check.Passed {
				return fmt.Errorf("output directory not usable: %s", check.Detail)
			}

			helper, err := drm.New(cfg.DRM.Helper, drm.WithLogger(logger))
			if err != nil {
				return err
			}
			if _, err := helper.Resolve(); err != nil {
				return fmt.Errorf("%w (set drm.helper in the config or RIDIEXPORT_DRM_HELPER)", err)
			}
			pipeline, err := exporter.NewPipeline(helper, helper,
				exporter.WithLockDir(cfg.LockDir()),
				exporter.WithOverwrite(overwrite || cfg.Export.OverwriteExisting),
				exporter.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, err := pipeline.Start(runCtx, exporter.Job{
				Books:      books,
				Credential: active,
				OutputDir:  target,
			})
			if err != nil {
				return err
			}

			var summary exporter.Summary
			switch {
			case jsonOutput:
				summary, err = renderJSONEvents(cmd, events)
			case isTerminal(cmd.ErrOrStderr()):
				summary = renderProgressBar(cmd.OutOrStdout(), cmd.ErrOrStderr(), events)
			default:
				summary = renderPlainEvents(cmd.OutOrStdout(), events)
			}
			if err != nil {
				return err
			}
			return summaryError(summary)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Export every downloaded book")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files instead of adding a numeric suffix")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Stream outcomes as JSON lines")
	return cmd
}

func resolveOutputDir(cfg *config.Config, flagValue string) (string, error) {
	target := cfg.Export.OutputDir
	if strings.TrimSpace(flagValue) != "" {
		expanded, err := config.ExpandPath(strings.TrimSpace(flagValue))
		if err != nil {
			return "", fmt.Errorf("resolve output directory: %w", err)
		}
		target = expanded
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %q: %w", target, err)
	}
	return target, nil
}

func renderPlainEvents(out io.Writer, events <-chan exporter.Event) exporter.Summary {
	var summary exporter.Summary
	for ev := range events {
		switch ev.Kind {
		case exporter.EventProgress, exporter.EventOutcome:
			fmt.Fprintln(out, ev.Message)
		case exporter.EventDone:
			summary = *ev.Summary
			printSummary(out, summary)
		}
	}
	return summary
}

func renderProgressBar(out, errOut io.Writer, events <-chan exporter.Event) exporter.Summary {
	var summary exporter.Summary
	var bar *progressbar.ProgressBar
	for ev := range events {
		switch ev.Kind {
		case exporter.EventProgress:
			if bar == nil {
				bar = progressbar.NewOptions(ev.Total,
					progressbar.OptionSetWriter(errOut),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(30),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Describe(ev.Message)
		case exporter.EventOutcome:
			if !ev.Outcome.Success {
				_ = bar.Clear()
				fmt.Fprintln(errOut, ev.Message)
			}
			_ = bar.Add(1)
		case exporter.EventDone:
			if bar != nil {
				_ = bar.Finish()
			}
			summary = *ev.Summary
			printSummary(out, summary)
		}
	}
	return summary
}

type outcomeLine struct {
	Type string `json:"type"`
	exporter.Outcome
}

type summaryLine struct {
	Type string `json:"type"`
	exporter.Summary
}

func renderJSONEvents(cmd *cobra.Command, events <-chan exporter.Event) (exporter.Summary, error) {
	var summary exporter.Summary
	var writeErr error
	for ev := range events {
		var err error
		switch ev.Kind {
		case exporter.EventOutcome:
			err = writeJSONLine(cmd, outcomeLine{Type: "outcome", Outcome: *ev.Outcome})
		case exporter.EventDone:
			summary = *ev.Summary
			err = writeJSONLine(cmd, summaryLine{Type: "summary", Summary: summary})
		}
		if err != nil && writeErr == nil {
			writeErr = err
		}
	}
	return summary, writeErr
}

func printSummary(out io.Writer, s exporter.Summary) {
	state := "Exported"
	if s.Cancelled {
		state = "Cancelled:"
	}
	fmt.Fprintf(out, "%s %d of %d books to %s (%s, %d failed)\n",
		state, s.Succeeded, s.Total, s.OutputDir, humanize.Bytes(uint64(s.Bytes)), s.Failed)
}

func summaryError(s exporter.Summary) error {
	switch {
	case s.Cancelled:
		return context.Canceled
	case s.Failed > 0:
		return fmt.Errorf("%d of %d books failed to export (see log for details)", s.Failed, s.Total)
	default:
		return nil
	}
}
