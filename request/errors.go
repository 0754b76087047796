package request

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrURLMissing is returned by URL when no base URL is set.
var ErrURLMissing = errors.New("request URL is missing")

// TranslationError reports that the query builder could not turn the
// parameter model into a map.
type TranslationError struct {
	Builder string
	Err     error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translating parameter model with %s: %v", e.Builder, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

func newTranslationError(builder string, err error) error {
	return errors.WithStack(&TranslationError{Builder: builder, Err: err})
}

// EncodingError reports that a parameter could not be encoded in the
// request charset, or that the charset is unknown.
type EncodingError struct {
	Charset string
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding parameters as %s: %v", e.Charset, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func newEncodingError(charsetName string, err error) error {
	return errors.WithStack(&EncodingError{Charset: charsetName, Err: err})
}
