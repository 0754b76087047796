package exchange

import (
	"log/slog"
	"time"
)

type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	Auth            AuthOptions

	// RetryInterval is the minimum spacing between attempts of one Send.
	RetryInterval time.Duration

	Logger *slog.Logger
}

type AuthOptions struct {
	Enabled  bool
	UserName string
	Password string
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
