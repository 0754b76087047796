package output

import (
	"io"
	"net/http"

	"github.com/nojima/litehttp-go/request"
)

type Printer interface {
	PrintRequestLine(req *request.Request) error
	PrintRequestHeader(req *request.Request) error
	PrintRequestBody(req *request.Request) error
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintHeader(header http.Header) error
	PrintBody(body io.Reader, contentType string) error
}

// NewPrinter returns a PrettyPrinter when formatting is enabled and a
// PlainPrinter otherwise.
func NewPrinter(writer io.Writer, options *Options) Printer {
	if options.EnableFormat {
		return NewPrettyPrinter(PrettyPrinterConfig{
			Writer:      writer,
			EnableColor: options.EnableColor,
		})
	}
	return NewPlainPrinter(writer)
}
