// Package request describes an outgoing HTTP call: its URL, parameters,
// headers and body entities. A Request is assembled by one goroutine and
// then handed to the exchange layer, which reads it once.
package request

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/nojima/litehttp-go/charset"
	"github.com/nojima/litehttp-go/entity"
	"github.com/nojima/litehttp-go/parser"
	"github.com/nojima/litehttp-go/query"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	DefaultCharset    = charset.Default
	DefaultMaxRetries = 3
)

type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodOptions Method = http.MethodOptions
	MethodTrace   Method = http.MethodTrace
)

// Abortable is registered by whatever executes the request so that Abort
// can reach it.
type Abortable interface {
	Abort()
}

// AbortFunc adapts a function (typically a context.CancelFunc) to Abortable.
type AbortFunc func()

func (f AbortFunc) Abort() { f() }

type Request struct {
	url          string
	method       Method
	charset      string
	maxRetries   int
	headers      *query.Map
	params       *query.Map
	model        any
	queryBuilder query.Builder
	parser       parser.Parser
	logger       *slog.Logger

	abortMu sync.Mutex
	abort   Abortable

	byteArrays []*entity.ByteArray
	strings    []*entity.String
	streams    *orderedmap.OrderedMap[string, *entity.InputStream]
	files      *orderedmap.OrderedMap[string, *entity.File]
}

type Option func(*Request)

// WithModel sets the typed parameter object translated by the query builder.
func WithModel(model any) Option {
	return func(r *Request) {
		r.model = model
	}
}

func WithMethod(method Method) Option {
	return func(r *Request) {
		r.method = method
	}
}

func WithParser(p parser.Parser) Option {
	return func(r *Request) {
		if p != nil {
			r.parser = p
		}
	}
}

func WithQueryBuilder(b query.Builder) Option {
	return func(r *Request) {
		if b != nil {
			r.queryBuilder = b
		}
	}
}

func WithCharset(name string) Option {
	return func(r *Request) {
		r.SetCharset(name)
	}
}

func WithMaxRetries(n int) Option {
	return func(r *Request) {
		r.SetMaxRetries(n)
	}
}

// WithLogger replaces slog.Default() as the destination of debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Request) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(rawURL string, opts ...Option) *Request {
	r := &Request{
		url:          rawURL,
		method:       MethodGet,
		charset:      DefaultCharset,
		maxRetries:   DefaultMaxRetries,
		headers:      query.NewMap(),
		params:       query.NewMap(),
		queryBuilder: query.JSONBuilder{},
		parser:       parser.StringParser{},
		logger:       slog.Default(),
		streams:      orderedmap.New[string, *entity.InputStream](),
		files:        orderedmap.New[string, *entity.File](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Request) AddHeader(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

// AddBytes appends a byte array entity. A nil slice is ignored.
func (r *Request) AddBytes(b []byte, contentType string) *Request {
	if b != nil {
		r.byteArrays = append(r.byteArrays, &entity.ByteArray{Bytes: b, ContentType: contentType})
	}
	return r
}

// AddString appends a string entity. An empty charset means the request's.
func (r *Request) AddString(text, mimeType, charsetName string) *Request {
	if charsetName == "" {
		charsetName = r.charset
	}
	r.strings = append(r.strings, &entity.String{Text: text, MimeType: mimeType, Charset: charsetName})
	return r
}

// AddStream puts a stream entity under key, replacing any previous one.
// A nil reader is ignored.
func (r *Request) AddStream(key string, in io.Reader, streamName, contentType string) *Request {
	if in != nil {
		r.streams.Set(key, &entity.InputStream{Reader: in, Name: streamName, ContentType: contentType})
	}
	return r
}

// AddFile puts a file entity under key, replacing any previous one.
// A nil file is ignored.
func (r *Request) AddFile(key string, f *os.File, contentType string) *Request {
	if f != nil {
		r.files.Set(key, &entity.File{File: f, ContentType: contentType})
	}
	return r
}

func (r *Request) AddParam(key, value string) *Request {
	r.params.Set(key, value)
	return r
}

// AddURLPrefix prepends prefix to the raw URL, e.g. a scheme and host.
func (r *Request) AddURLPrefix(prefix string) *Request {
	r.url = prefix + r.url
	return r
}

// AddURLSuffix appends suffix to the raw URL, e.g. a path segment.
func (r *Request) AddURLSuffix(suffix string) *Request {
	r.url = r.url + suffix
	return r
}

// RawURL returns the base URL without parameters.
func (r *Request) RawURL() string {
	return r.url
}

func (r *Request) SetURL(rawURL string) *Request {
	r.url = rawURL
	return r
}

func (r *Request) Headers() *query.Map {
	return r.headers
}

// SetHeaders replaces all headers. A nil map clears them.
func (r *Request) SetHeaders(headers *query.Map) *Request {
	if headers == nil {
		headers = query.NewMap()
	}
	r.headers = headers
	return r
}

// Params returns the explicitly added parameters, without the model's.
func (r *Request) Params() *query.Map {
	return r.params
}

// SetParams replaces all explicit parameters. A nil map clears them.
func (r *Request) SetParams(params *query.Map) *Request {
	if params == nil {
		params = query.NewMap()
	}
	r.params = params
	return r
}

func (r *Request) Model() any {
	return r.model
}

func (r *Request) SetModel(model any) *Request {
	r.model = model
	return r
}

func (r *Request) QueryBuilder() query.Builder {
	return r.queryBuilder
}

func (r *Request) SetQueryBuilder(b query.Builder) *Request {
	r.queryBuilder = b
	return r
}

func (r *Request) Method() Method {
	return r.method
}

func (r *Request) SetMethod(method Method) *Request {
	r.method = method
	return r
}

func (r *Request) ByteArrays() []*entity.ByteArray {
	return r.byteArrays
}

func (r *Request) Strings() []*entity.String {
	return r.strings
}

func (r *Request) Streams() *orderedmap.OrderedMap[string, *entity.InputStream] {
	return r.streams
}

func (r *Request) Files() *orderedmap.OrderedMap[string, *entity.File] {
	return r.files
}

// HasEntities reports whether any body entity was added.
func (r *Request) HasEntities() bool {
	return len(r.byteArrays) > 0 || len(r.strings) > 0 || r.streams.Len() > 0 || r.files.Len() > 0
}

func (r *Request) Charset() string {
	return r.charset
}

// SetCharset sets the charset used to encode parameters. An empty name
// restores DefaultCharset.
func (r *Request) SetCharset(name string) *Request {
	if name == "" {
		name = DefaultCharset
	}
	r.charset = name
	return r
}

func (r *Request) MaxRetries() int {
	return r.maxRetries
}

// SetMaxRetries sets how often the exchange layer may retry. Negative
// values are treated as zero.
func (r *Request) SetMaxRetries(n int) *Request {
	if n < 0 {
		n = 0
	}
	r.maxRetries = n
	return r
}

func (r *Request) Parser() parser.Parser {
	return r.parser
}

func (r *Request) SetParser(p parser.Parser) *Request {
	r.parser = p
	return r
}

func (r *Request) Logger() *slog.Logger {
	return r.logger
}

// SetAbort registers the handle Abort forwards to. Pass nil to detach.
func (r *Request) SetAbort(a Abortable) {
	r.abortMu.Lock()
	defer r.abortMu.Unlock()
	r.abort = a
}

// Abort forwards to the registered handle, if any. It does not touch the
// rest of the request and may be called from any goroutine.
func (r *Request) Abort() {
	r.abortMu.Lock()
	a := r.abort
	r.abortMu.Unlock()
	if a != nil {
		a.Abort()
	}
}
