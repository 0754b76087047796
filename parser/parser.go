// Package parser turns response bodies into values. Requests only carry a
// parser; the exchange layer runs it once a response arrives.
package parser

import (
	"encoding/json"
	"io"

	"github.com/nojima/litehttp-go/charset"
	"github.com/pkg/errors"
)

type Parser interface {
	Parse(body io.Reader, charsetName string) (any, error)
}

// StringParser decodes the body from the request charset into a string.
type StringParser struct{}

func (StringParser) Parse(body io.Reader, charsetName string) (any, error) {
	if charsetName == "" {
		charsetName = charset.Default
	}
	r, err := charset.NewDecoder(body, charsetName)
	if err != nil {
		return nil, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	return string(b), nil
}

// BytesParser returns the body untouched.
type BytesParser struct{}

func (BytesParser) Parse(body io.Reader, _ string) (any, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	return b, nil
}

// JSONParser decodes the body into Target, which must be a pointer.
// A nil Target decodes into a generic value.
type JSONParser struct {
	Target any
}

func (p *JSONParser) Parse(body io.Reader, _ string) (any, error) {
	target := p.Target
	if target == nil {
		var v any
		if err := json.NewDecoder(body).Decode(&v); err != nil {
			return nil, errors.Wrap(err, "parsing response body as JSON")
		}
		return v, nil
	}
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return nil, errors.Wrap(err, "parsing response body as JSON")
	}
	return target, nil
}
