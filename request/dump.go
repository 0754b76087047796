package request

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/nojima/litehttp-go/query"
)

// String lists every field for diagnostics. Pluggable components are named
// by type rather than dumped.
func (r *Request) String() string {
	lines := []string{
		"url = " + r.url,
		"method = " + string(r.method),
		"headers = " + formatMap(r.headers),
		"charset = " + r.charset,
		fmt.Sprintf("maxRetries = %d", r.maxRetries),
		fmt.Sprintf("model = %+v", r.model),
		"parser = " + typeName(r.parser),
		"queryBuilder = " + typeName(r.queryBuilder),
		"params = " + formatMap(r.params),
		"streams = " + r.formatStreams(),
		"files = " + r.formatFiles(),
		"byteArrays = " + formatList(r.byteArrays),
		"strings = " + formatList(r.strings),
	}
	return "\t" + strings.Join(lines, "\n\t")
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func formatMap(m *query.Map) string {
	var parts []string
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, pair.Key+"="+pair.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (r *Request) formatStreams() string {
	var parts []string
	for pair := r.streams.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, pair.Key+"="+pair.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (r *Request) formatFiles() string {
	var parts []string
	for pair := r.files.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, pair.Key+"="+pair.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatList[T fmt.Stringer](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
