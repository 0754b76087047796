package request

import (
	"strings"

	"github.com/nojima/litehttp-go/charset"
	"github.com/pkg/errors"
)

// URL returns the base URL with every parameter appended as a
// form-urlencoded query, in BasicParams order. The base URL is returned
// unchanged when there are no parameters. URL is a pure function of the
// request's state.
func (r *Request) URL() (string, error) {
	if r.url == "" {
		return "", errors.WithStack(ErrURLMissing)
	}
	if r.params.Len() == 0 && r.model == nil {
		return r.url, nil
	}

	params, err := r.BasicParams()
	if err != nil {
		return "", err
	}
	if params.Len() == 0 {
		return r.url, nil
	}

	var sb strings.Builder
	sb.WriteString(r.url)
	if strings.Contains(r.url, "?") {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	first := true
	for pair := params.Oldest(); pair != nil; pair = pair.Next() {
		key, err := charset.QueryEscape(pair.Key, r.charset)
		if err != nil {
			return "", newEncodingError(r.charset, err)
		}
		value, err := charset.QueryEscape(pair.Value, r.charset)
		if err != nil {
			return "", newEncodingError(r.charset, err)
		}
		if !first {
			sb.WriteByte('&')
		}
		first = false
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(value)
	}

	u := sb.String()
	r.logger.Debug("request URL", "url", u)
	return u, nil
}
