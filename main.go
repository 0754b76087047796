package litehttp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/nojima/litehttp-go/exchange"
	"github.com/nojima/litehttp-go/flags"
	"github.com/nojima/litehttp-go/input"
	"github.com/nojima/litehttp-go/output"
	"github.com/nojima/litehttp-go/parser"
	"github.com/nojima/litehttp-go/version"
	"github.com/pkg/errors"
)

func Main() error {
	// Parse flags
	args, flagSet, optionSet, err := flags.Parse(os.Args)
	if err != nil {
		if flagSet != nil {
			flagSet.PrintUsage(os.Stderr)
		}
		return err
	}

	return run(context.Background(), args, os.Stdin, os.Stdout, os.Stderr, flagSet, optionSet)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, flagSet flags.FlagSet, optionSet *flags.OptionSet) error {
	if optionSet.PrintVersion {
		fmt.Fprintf(stdout, "litehttp-go %s\n", version.Current())
		return nil
	}
	if optionSet.PrintLicense {
		version.PrintLicenses(stdout)
		return nil
	}

	logger := newLogger(stderr, optionSet.Verbose)
	inputOptions := optionSet.InputOptions
	inputOptions.Logger = logger
	exchangeOptions := optionSet.ExchangeOptions
	exchangeOptions.Logger = logger
	outputOptions := &optionSet.OutputOptions

	// Parse positional arguments
	req, err := input.ParseArgs(args, stdin, &inputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		flagSet.PrintUsage(stderr)
		return err
	}
	if err != nil {
		return err
	}
	defer input.CloseFiles(req)

	writer := bufio.NewWriter(stdout)
	defer writer.Flush()

	if optionSet.DryRun {
		fmt.Fprintln(writer, req)
		return nil
	}

	// Print request
	printer := output.NewPrinter(writer, outputOptions)
	if outputOptions.PrintRequestHeader {
		if err := printer.PrintRequestLine(req); err != nil {
			return err
		}
		if err := printer.PrintRequestHeader(req); err != nil {
			return err
		}
	}
	if outputOptions.PrintRequestBody {
		if err := printer.PrintRequestBody(req); err != nil {
			return err
		}
	}
	writer.Flush()

	// Ctrl-C aborts the exchange
	done := make(chan struct{})
	defer close(done)
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)
	go func() {
		select {
		case <-interrupted:
			logger.Warn("interrupted; aborting request")
			req.Abort()
		case <-done:
		}
	}()

	// Send request and receive response
	if outputOptions.OutputFile != "" {
		req.SetParser(parser.BytesParser{})
	}
	resp, body, err := exchange.Receive(ctx, req, &exchangeOptions)
	if err != nil {
		return err
	}

	// Print response
	if outputOptions.PrintResponseHeader {
		if err := printer.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(resp.Header); err != nil {
			return err
		}
	}
	if outputOptions.OutputFile != "" {
		fileWriter := output.NewFileWriter(outputOptions.OutputFile, outputOptions.Overwrite)
		n, err := fileWriter.Write(bodyReader(body))
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Saved %s to %s\n", bytefmt.ByteSize(uint64(n)), fileWriter.Path())
		return nil
	}
	if outputOptions.PrintResponseBody {
		if err := printer.PrintBody(bodyReader(body), resp.Header.Get("Content-Type")); err != nil {
			return err
		}
	}

	return nil
}

func bodyReader(body any) io.Reader {
	switch v := body.(type) {
	case []byte:
		return bytes.NewReader(v)
	case string:
		return strings.NewReader(v)
	default:
		return strings.NewReader(fmt.Sprint(v))
	}
}
