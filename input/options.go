package input

import "log/slog"

type Options struct {
	JSON      bool
	Form      bool
	ReadStdin bool

	// ParamsFile names a YAML mapping that becomes the parameter model.
	ParamsFile string
	Charset    string
	MaxRetries int

	// Logger receives the debug output of the request. Nil means slog.Default().
	Logger *slog.Logger
}
