package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/YLivay/gocsv/csv"
	"github.com/YLivay/gocsv/log"
	"github.com/YLivay/gocsv/reader"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gocsv: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}

	rootCmd := &cobra.Command{
		Use:           "gocsv",
		Short:         "Stream, filter and browse CSV files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cfg.bindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newParseCmd(cfg), newViewCmd(cfg))
	return rootCmd
}

type parseConfig struct {
	Filter          string
	Output          string
	OutputSeparator string
}

func newParseCmd(cfg *config) *cobra.Command {
	pcfg := &parseConfig{}

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print every row as JSON or CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancelCtx := context.WithCancel(cmd.Context())
			cleanupOsSignals := setupOsSignals(ctx, cancelCtx)
			defer cleanupOsSignals()

			cleanupLogging, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer cleanupLogging()

			return runParse(ctx, cfg, pcfg, inputName(args), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&pcfg.Filter, "filter", "", "jq expression applied to every row; $line is the row's line number")
	cmd.Flags().StringVarP(&pcfg.Output, "output", "o", outputJSON, "Output format: json or csv")
	cmd.Flags().StringVar(&pcfg.OutputSeparator, "output-separator", "", "Field separator of csv output, defaults to --separator")
	return cmd
}

type viewConfig struct {
	Eager   int
	History int
}

func newViewCmd(cfg *config) *cobra.Command {
	vcfg := &viewConfig{}

	cmd := &cobra.Command{
		Use:   "view [file|-]",
		Short: "Browse rows in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancelCtx := context.WithCancel(cmd.Context())
			cleanupOsSignals := setupOsSignals(ctx, cancelCtx)
			defer cleanupOsSignals()

			cleanupLogging, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer cleanupLogging()

			return runView(ctx, cancelCtx, cfg, vcfg, inputName(args))
		},
	}

	cmd.Flags().IntVar(&vcfg.Eager, "eager", defaultFwdEager, "Lines to read ahead of the bottom of the screen")
	cmd.Flags().IntVar(&vcfg.History, "history", defaultHistory, "Lines kept above the screen in follow mode, 0 keeps all")
	return cmd
}

func inputName(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func runParse(ctx context.Context, cfg *config, pcfg *parseConfig, filename string, stdin io.Reader, stdout io.Writer) (err error) {
	input, cleanupInput, err := prepareInput(filename, stdin)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, cleanupInput())
	}()

	stream, err := openStream(ctx, cfg, input)
	if err != nil {
		return err
	}
	defer stream.Close()

	var filter *rowFilter
	if pcfg.Filter != "" {
		if filter, err = newRowFilter(pcfg.Filter); err != nil {
			return err
		}
	}

	outSep, err := parseRuneFlag("output-separator", pcfg.OutputSeparator)
	if err != nil {
		return err
	}
	if outSep == 0 {
		outSep, _ = parseRuneFlag("separator", cfg.Separator)
	}

	out, err := newValueWriter(pcfg.Output, stdout, outSep, stream.Columns)
	if err != nil {
		return err
	}

	rows := 0
	for row, err := range stream.All(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				log.Debugf("parse: interrupted after %d rows", rows)
				return out.Flush()
			}
			return multierr.Append(err, out.Flush())
		}
		rows++

		values := []any{rowValue(row)}
		if filter != nil {
			if values, err = filter.Apply(ctx, row); err != nil {
				return multierr.Append(err, out.Flush())
			}
		}

		for _, v := range values {
			if err := out.WriteValue(v); err != nil {
				return fmt.Errorf("failed to write row from line %d: %w", row.Line, err)
			}
		}
		if cfg.Follow {
			if err := out.Flush(); err != nil {
				return err
			}
		}
	}

	log.Debugf("parse: wrote %d rows", rows)
	return out.Flush()
}

func runView(ctx context.Context, cancelCtx context.CancelFunc, cfg *config, vcfg *viewConfig, filename string) (err error) {
	if err := ensureTerminal(); err != nil {
		return err
	}
	if filename == "-" && stdinIsTerminal() {
		return errors.New("no input: pass a file name or pipe data into stdin")
	}

	input, cleanupInput, err := prepareInput(filename, os.Stdin)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, cleanupInput())
	}()

	stream, err := openStream(ctx, cfg, input)
	if err != nil {
		return err
	}
	defer stream.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal screen: %w", err)
	}

	quit := func() {
		// You have to catch panics in a defer, clean up, and
		// re-raise them - otherwise your application can
		// die without leaving any diagnostic trace.
		maybePanic := recover()
		screen.Fini()
		if maybePanic != nil {
			panic(maybePanic)
		}
	}
	defer quit()

	app := NewApplication(stream, cfg.Follow)
	app.attach(screen)
	app.buffer.SetEagerness(vcfg.Eager, vcfg.History)

	return app.Run(ctx, cancelCtx, screen)
}

func openStream(ctx context.Context, cfg *config, input io.Reader) (*csv.Stream, error) {
	opts, err := cfg.streamOptions()
	if err != nil {
		return nil, err
	}

	stream, err := csv.NewStream(reader.NewLineScanner(input, cfg.scannerOptions(ctx)...), opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return stream, nil
}

func setupOsSignals(ctx context.Context, cancelCtx context.CancelFunc) (cleanup func()) {
	// Catch ctrl+c signal and make it close the context instead of immediately
	// exiting. This allows us to do some cleanup. A second ctrl+c exits.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	cleanup = func() {
		signal.Stop(signalChan)
		cancelCtx()
	}

	go func() {
		select {
		case <-signalChan:
			log.Debugf("Ctrl+C pressed")
			signal.Stop(signalChan)
			cancelCtx()
		case <-ctx.Done():
		}
	}()

	return cleanup
}

// setupLogging applies the logging flags. The returned function restores the
// previous output.
func setupLogging(cfg *config) (cleanup func(), err error) {
	log.SetVerbose(cfg.Verbose)
	if cfg.LogFile == "" {
		return func() { log.SetVerbose(false) }, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	prevOutput := log.Default().Writer()
	log.SetOutput(f)

	return func() {
		log.SetOutput(prevOutput)
		log.SetVerbose(false)
		if err := f.Close(); err != nil {
			log.Println("Failed to close log file:", err)
		}
	}, nil
}

// prepareInput opens the named input, or returns stdin for "-". The cleanup
// function closes whatever was opened and tolerates the stream closing it
// first.
func prepareInput(filename string, stdin io.Reader) (input io.Reader, cleanup func() error, err error) {
	// As resources are created in this function, accumulate functions to clean
	// them up in this slice.
	var deferredCleanups []func() error
	cleanup = func() error {
		var result error
		// Invoke deferredCleanups in reverse order.
		for i := len(deferredCleanups) - 1; i >= 0; i-- {
			result = multierr.Append(result, deferredCleanups[i]())
		}
		return result
	}

	if filename == "-" {
		log.Debugf("Reading from stdin")
		// The stream closes its input when it ends; stdin must stay open.
		return io.NopCloser(stdin), cleanup, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file for reading: %w", err)
	}
	log.Debugf("Reading from %s", filename)

	deferredCleanups = append(deferredCleanups, func() error {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return fmt.Errorf("failed to close %s: %w", filename, err)
		}
		return nil
	})

	return f, cleanup, nil
}
