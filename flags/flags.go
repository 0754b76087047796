package flags

import (
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/nojima/litehttp-go/exchange"
	"github.com/nojima/litehttp-go/input"
	"github.com/nojima/litehttp-go/output"
	"github.com/nojima/litehttp-go/request"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

// readPassword is replaced in tests.
var readPassword = askPassword

type FlagSet interface {
	PrintUsage(w io.Writer)
}

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options

	DryRun       bool
	Verbose      bool
	PrintVersion bool
	PrintLicense bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

// Parse parses command line flags. args[0] is the program name. The
// returned slice holds the positional arguments.
func Parse(args []string) ([]string, FlagSet, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminalInfo terminalInfo) ([]string, FlagSet, *OptionSet, error) {
	// Parse flags
	optionSet := &OptionSet{}
	inputOptions := &optionSet.InputOptions
	outputOptions := &optionSet.OutputOptions
	exchangeOptions := &optionSet.ExchangeOptions
	var ignoreStdin bool
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print
	timeout := "30s"
	retries := strconv.Itoa(request.DefaultMaxRetries)
	retryInterval := "1s"
	authFlag := ""

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "data items are serialized as JSON (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "data items are serialized as form fields")
	flagSet.StringVarLong(&inputOptions.ParamsFile, "params", 0, "YAML file whose mapping is sent as URL parameters", "FILE")
	flagSet.StringVarLong(&inputOptions.Charset, "charset", 0, "charset used to encode parameters and text bodies (default UTF-8)", "NAME")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "save the response body to FILE", "FILE")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "allow --output to replace an existing file")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "Timeout seconds that you allow the whole operation to take")
	flagSet.StringVarLong(&retries, "retries", 0, "how many times a failed connection is retried", "N")
	flagSet.StringVarLong(&retryInterval, "retry-interval", 0, "minimum interval between retries", "DURATION")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.StringVarLong(&authFlag, "auth", 'a', "colon-separated username and password for authentication", "USER[:PASS]")
	flagSet.BoolVarLong(&optionSet.DryRun, "dry-run", 0, "print the request instead of sending it")
	flagSet.BoolVarLong(&optionSet.Verbose, "verbose", 'v', "log debug messages to stderr")
	flagSet.BoolVarLong(&optionSet.PrintVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&optionSet.PrintLicense, "license", 0, "print license information and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, flagSet, nil, errors.WithStack(err)
	}

	// Check stdin
	if !ignoreStdin && !terminalInfo.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, terminalInfo.stdoutIsTerminal, outputOptions); err != nil {
		return nil, flagSet, nil, err
	}

	// Parse --timeout and --retry-interval
	d, err := parseDurationOrSeconds("--timeout", timeout)
	if err != nil {
		return nil, flagSet, nil, err
	}
	exchangeOptions.Timeout = d
	d, err = parseDurationOrSeconds("--retry-interval", retryInterval)
	if err != nil {
		return nil, flagSet, nil, err
	}
	exchangeOptions.RetryInterval = d

	// Parse --retries
	n, err := strconv.Atoi(retries)
	if err != nil || n < 0 {
		return nil, flagSet, nil, errors.Errorf("Value of --retries must be a non-negative integer: %s", retries)
	}
	inputOptions.MaxRetries = n

	// Parse --auth
	if authFlag != "" {
		auth, err := parseAuth(authFlag)
		if err != nil {
			return nil, flagSet, nil, err
		}
		exchangeOptions.Auth = auth
	}

	// Color
	outputOptions.EnableFormat = terminalInfo.stdoutIsTerminal
	outputOptions.EnableColor = terminalInfo.stdoutIsTerminal

	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlag string, stdoutIsTerminal bool, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
	} else {
		for _, c := range printFlag {
			switch c {
			case 'H':
				outputOptions.PrintRequestHeader = true
			case 'B':
				outputOptions.PrintRequestBody = true
			case 'h':
				outputOptions.PrintResponseHeader = true
			case 'b':
				outputOptions.PrintResponseBody = true
			default:
				return errors.Errorf("Invalid char in --print value (must be consist of HBhb): %c", c)
			}
		}
	}
	return nil
}

func parseDurationOrSeconds(flag, value string) (time.Duration, error) {
	if reNumber.MatchString(value) {
		value += "s"
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return time.Duration(0), errors.Errorf("Value of %s must be a number or duration string: %v", flag, value)
	}
	return d, nil
}

func parseAuth(authFlag string) (exchange.AuthOptions, error) {
	userName, password, hasPassword := strings.Cut(authFlag, ":")
	if !hasPassword {
		p, err := readPassword(userName)
		if err != nil {
			return exchange.AuthOptions{}, err
		}
		password = p
	}
	return exchange.AuthOptions{
		Enabled:  true,
		UserName: userName,
		Password: password,
	}, nil
}
