package output

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/nojima/litehttp-go/request"
	"github.com/pkg/errors"
)

type PlainPrinter struct {
	writer io.Writer
}

func NewPlainPrinter(writer io.Writer) Printer {
	return &PlainPrinter{
		writer: writer,
	}
}

func (p *PlainPrinter) PrintRequestLine(req *request.Request) error {
	u, err := req.URL()
	if err != nil {
		return err
	}
	fmt.Fprintf(p.writer, "%s %s HTTP/1.1\n", requestMethod(req), u)
	return nil
}

func (p *PlainPrinter) PrintRequestHeader(req *request.Request) error {
	for pair := req.Headers().Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(p.writer, "%s: %s\n", pair.Key, pair.Value)
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PlainPrinter) PrintRequestBody(req *request.Request) error {
	for _, line := range entityLines(req) {
		fmt.Fprintln(p.writer, line)
	}
	if req.HasEntities() {
		fmt.Fprintln(p.writer)
	}
	return nil
}

func (p *PlainPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n", proto, status)
	return nil
}

func (p *PlainPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PlainPrinter) PrintBody(body io.Reader, contentType string) error {
	_, err := io.Copy(p.writer, body)
	if err != nil {
		return errors.Wrap(err, "printing response body")
	}
	return nil
}

func requestMethod(req *request.Request) request.Method {
	if req.Method() == "" {
		return request.MethodGet
	}
	return req.Method()
}

func sortedNames(header http.Header) []string {
	var names []string
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// entityLines describes the body entities of req in the order the exchange
// layer sends them. Text is printed as is, everything else as a summary.
func entityLines(req *request.Request) []string {
	var lines []string
	for _, e := range req.Strings() {
		lines = append(lines, e.Text)
	}
	for _, e := range req.ByteArrays() {
		lines = append(lines, e.String())
	}
	for pair := req.Streams().Oldest(); pair != nil; pair = pair.Next() {
		lines = append(lines, pair.Key+": "+pair.Value.String())
	}
	for pair := req.Files().Oldest(); pair != nil; pair = pair.Next() {
		lines = append(lines, pair.Key+": "+pair.Value.String())
	}
	return lines
}
