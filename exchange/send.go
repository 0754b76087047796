package exchange

import (
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/nojima/litehttp-go/parser"
	"github.com/nojima/litehttp-go/request"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Send executes req. Transport failures are retried up to req.MaxRetries()
// times, no faster than options.RetryInterval; HTTP error statuses are
// returned as responses. While the call and the response body are alive,
// req.Abort cancels them. Streams and files referenced by req are read but
// never closed.
func Send(ctx context.Context, req *request.Request, options *Options) (*http.Response, error) {
	if options == nil {
		options = &Options{}
	}
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	req.SetAbort(request.AbortFunc(cancel))

	r, err := BuildHTTPRequest(ctx, req, options)
	if err != nil {
		cancel()
		return nil, err
	}

	logger := options.logger().With("id", uuid.New().String())
	limiter := rate.NewLimiter(rate.Every(options.RetryInterval), 1)

	var lastErr error
	for attempt := 1; attempt <= req.MaxRetries()+1; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}
		attemptReq, err := rewind(ctx, r, attempt)
		if err != nil {
			cancel()
			return nil, err
		}

		logger.Debug("sending request", "attempt", attempt, "method", r.Method, "url", r.URL.String())
		resp, err := client.Do(attemptReq)
		if err == nil {
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		logger.Warn("request failed", "attempt", attempt, "error", err)
	}

	cancel()
	return nil, errors.Wrap(lastErr, "sending HTTP request")
}

// rewind returns r for the first attempt and a copy with a fresh body for
// later ones.
func rewind(ctx context.Context, r *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return r, nil
	}
	cpy := r.Clone(ctx)
	if r.GetBody != nil {
		body, err := r.GetBody()
		if err != nil {
			return nil, errors.Wrap(err, "rewinding request body")
		}
		cpy.Body = body
	}
	return cpy, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// Receive sends req and runs its parser over the response body, which is
// closed afterwards.
func Receive(ctx context.Context, req *request.Request, options *Options) (*http.Response, any, error) {
	resp, err := Send(ctx, req, options)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	p := req.Parser()
	if p == nil {
		p = parser.StringParser{}
	}
	v, err := p.Parse(resp.Body, responseCharset(resp, req.Charset()))
	if err != nil {
		return resp, nil, errors.Wrap(err, "parsing response")
	}
	return resp, v, nil
}

func responseCharset(resp *http.Response, fallback string) string {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || params["charset"] == "" {
		return fallback
	}
	return params["charset"]
}
