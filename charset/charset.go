// Package charset resolves character set names and converts text to and
// from their byte representation.
package charset

import (
	"io"
	"net/url"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

const Default = "UTF-8"

// Lookup returns the encoding registered under name. IANA names are tried
// first, then the WHATWG labels browsers accept (e.g. "utf8", "latin1").
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, errors.New("charset name is empty")
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return enc, nil
	}
	enc, err = htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported charset '%s'", name)
	}
	return enc, nil
}

// Encode converts s into the byte sequence of the named charset.
func Encode(s, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "encoding text as %s", name)
	}
	return b, nil
}

// NewDecoder returns a reader that converts r from the named charset to UTF-8.
func NewDecoder(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(r), nil
}

// QueryEscape escapes s following application/x-www-form-urlencoded rules
// over the bytes of s in the named charset. Spaces become '+'.
func QueryEscape(s, name string) (string, error) {
	b, err := Encode(s, name)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(b)), nil
}
