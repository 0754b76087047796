package output

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/nojima/litehttp-go/request"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	enableColor   bool
	headerPalette *HeaderPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	Status         aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
	Entity         aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.GreenFg | aurora.BoldFm,
	URL:            aurora.CyanFg,
	Proto:          aurora.BlueFg,
	Status:         aurora.BrownFg | aurora.BoldFm,
	FieldName:      aurora.GrayFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.GrayFg,
	Entity:         aurora.MagentaFg,
}

var jsonOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "    ",
	SortKeys: false,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		enableColor:   config.EnableColor,
		headerPalette: &defaultHeaderPalette,
	}
}

func (p *PrettyPrinter) PrintRequestLine(req *request.Request) error {
	u, err := req.URL()
	if err != nil {
		return err
	}
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(requestMethod(req), p.headerPalette.Method),
		p.aurora.Colorize(u, p.headerPalette.URL),
		p.aurora.Colorize("HTTP/1.1", p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintRequestHeader(req *request.Request) error {
	for pair := req.Headers().Oldest(); pair != nil; pair = pair.Next() {
		p.printField(pair.Key, pair.Value)
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PrettyPrinter) PrintRequestBody(req *request.Request) error {
	for _, e := range req.Strings() {
		if isJSON(e.MimeType) {
			if err := p.printJSON([]byte(e.Text)); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(p.writer, e.Text)
	}
	lines := entityLines(req)
	for _, line := range lines[len(req.Strings()):] {
		fmt.Fprintln(p.writer, p.aurora.Colorize(line, p.headerPalette.Entity))
	}
	if req.HasEntities() {
		fmt.Fprintln(p.writer)
	}
	return nil
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.headerPalette.Status))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			p.printField(name, value)
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func (p *PrettyPrinter) printField(name, value string) {
	fmt.Fprintf(p.writer, "%s%s %s\n",
		p.aurora.Colorize(name, p.headerPalette.FieldName),
		p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
		p.aurora.Colorize(value, p.headerPalette.FieldValue))
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	// Fallback to PlainPrinter when the body is not JSON
	if !isJSON(contentType) {
		return p.plain.PrintBody(body, contentType)
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}
	return p.printJSON(b)
}

// printJSON indents a JSON document. Anything that is not a valid JSON
// object or array is written unchanged.
func (p *PrettyPrinter) printJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') || !gjson.ValidBytes(trimmed) {
		_, err := p.writer.Write(b)
		return errors.Wrap(err, "printing body")
	}

	formatted := pretty.PrettyOptions(trimmed, jsonOptions)
	if p.enableColor {
		formatted = pretty.Color(formatted, nil)
	}
	if _, err := p.writer.Write(formatted); err != nil {
		return errors.Wrap(err, "printing body")
	}
	return nil
}
