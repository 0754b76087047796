package request

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/nojima/litehttp-go/parser"
	"github.com/nojima/litehttp-go/query"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(m *query.Map) []string {
	var out []string
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

type itemParams struct {
	ID   string `json:"id"`
	Sort string `json:"sort,omitempty"`
}

func TestURL(t *testing.T) {
	testCases := []struct {
		title    string
		req      *Request
		expected string
	}{
		{
			title:    "Explicit parameter",
			req:      New("http://api.example.com/item").AddParam("id", "42"),
			expected: "http://api.example.com/item?id=42",
		},
		{
			title:    "Base URL already has a query",
			req:      New("http://api.example.com/item?x=1").AddParam("id", "42"),
			expected: "http://api.example.com/item?x=1&id=42",
		},
		{
			title:    "No parameters",
			req:      New("http://api.example.com/item"),
			expected: "http://api.example.com/item",
		},
		{
			title: "Insertion order is kept",
			req: New("http://api.example.com/search").
				AddParam("z", "1").
				AddParam("a", "2").
				AddParam("m", "3"),
			expected: "http://api.example.com/search?z=1&a=2&m=3",
		},
		{
			title:    "Keys and values are escaped",
			req:      New("http://api.example.com/search").AddParam("q w", "a&b=c é"),
			expected: "http://api.example.com/search?q+w=a%26b%3Dc+%C3%A9",
		},
		{
			title:    "Configured charset",
			req:      New("http://api.example.com/search", WithCharset("ISO-8859-1")).AddParam("q", "é"),
			expected: "http://api.example.com/search?q=%E9",
		},
		{
			title:    "Model only",
			req:      New("http://api.example.com/item", WithModel(&itemParams{ID: "7", Sort: "asc"})),
			expected: "http://api.example.com/item?id=7&sort=asc",
		},
		{
			title:    "Model yields no parameters",
			req:      New("http://api.example.com/item", WithModel(map[string]string{})),
			expected: "http://api.example.com/item",
		},
		{
			title:    "Re-adding a parameter overwrites it in place",
			req:      New("http://api.example.com/item").AddParam("a", "1").AddParam("b", "2").AddParam("a", "3"),
			expected: "http://api.example.com/item?a=3&b=2",
		},
		{
			title:    "Empty value",
			req:      New("http://api.example.com/item").AddParam("q", ""),
			expected: "http://api.example.com/item?q=",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			actual, err := tt.req.URL()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestURL_Missing(t *testing.T) {
	_, err := New("").URL()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrURLMissing)
	assert.Equal(t, ErrURLMissing, errors.Cause(err))
}

func TestURL_Idempotent(t *testing.T) {
	req := New("http://api.example.com/item", WithModel(&itemParams{ID: "7"})).
		AddParam("b", "2").
		AddParam("a", "1")

	first, err := req.URL()
	require.NoError(t, err)
	second, err := req.URL()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestURL_UnsupportedCharset(t *testing.T) {
	_, err := New("http://api.example.com", WithCharset("no-such-charset")).AddParam("a", "b").URL()
	require.Error(t, err)

	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "no-such-charset", encErr.Charset)
}

func TestURL_UnencodableValue(t *testing.T) {
	_, err := New("http://api.example.com", WithCharset("ISO-8859-1")).AddParam("price", "5€").URL()

	var encErr *EncodingError
	assert.True(t, errors.As(err, &encErr))
}

func TestURL_TranslationError(t *testing.T) {
	_, err := New("http://api.example.com", WithModel(42)).URL()
	require.Error(t, err)

	translationErr, ok := errors.Cause(err).(*TranslationError)
	require.True(t, ok)
	assert.Equal(t, "JSONBuilder", translationErr.Builder)
}

func TestBasicParams_ModelTakesPrecedence(t *testing.T) {
	// Setup
	req := New("http://api.example.com/item", WithModel(&itemParams{ID: "from-model", Sort: "desc"})).
		AddParam("page", "1").
		AddParam("id", "explicit")

	// Exercise
	params, err := req.BasicParams()
	require.NoError(t, err)

	// Verify
	assert.Equal(t, []string{"page", "id", "sort"}, keys(params))
	id, _ := params.Get("id")
	assert.Equal(t, "from-model", id)
	page, _ := params.Get("page")
	assert.Equal(t, "1", page)

	u, err := req.URL()
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com/item?page=1&id=from-model&sort=desc", u)

	// The explicit map itself is untouched.
	explicit, _ := req.Params().Get("id")
	assert.Equal(t, "explicit", explicit)
}

type staticBuilder struct{}

func (staticBuilder) BuildPrimaryMap(model any) (*query.Map, error) {
	m := query.NewMap()
	m.Set("static", "yes")
	return m, nil
}

func TestBasicParams_CustomBuilder(t *testing.T) {
	req := New("http://api.example.com", WithQueryBuilder(staticBuilder{}), WithModel(struct{}{}))

	u, err := req.URL()
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com?static=yes", u)

	req.SetQueryBuilder(query.ValuesBuilder{})
	u, err = req.URL()
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", u)
}

func TestEntities(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "litehttp-go-test-")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())
	defer tmpfile.Close()

	req := New("http://api.example.com/upload")
	assert.False(t, req.HasEntities())

	req.AddBytes([]byte("one"), "application/octet-stream").
		AddBytes([]byte("two"), "application/octet-stream").
		AddBytes(nil, "application/octet-stream")
	require.Len(t, req.ByteArrays(), 2)
	assert.Equal(t, "one", string(req.ByteArrays()[0].Bytes))
	assert.Equal(t, "two", string(req.ByteArrays()[1].Bytes))

	req.AddString("hello", "text/plain", "")
	require.Len(t, req.Strings(), 1)
	assert.Equal(t, DefaultCharset, req.Strings()[0].Charset)

	req.AddStream("avatar", strings.NewReader("a"), "a.png", "image/png").
		AddStream("other", bytes.NewReader([]byte("b")), "b.bin", "").
		AddStream("avatar", strings.NewReader("c"), "c.png", "image/png").
		AddStream("ignored", nil, "x", "")
	assert.Equal(t, 2, req.Streams().Len())
	avatar, ok := req.Streams().Get("avatar")
	require.True(t, ok)
	assert.Equal(t, "c.png", avatar.Name)
	assert.Equal(t, "avatar", req.Streams().Oldest().Key)

	req.AddFile("doc", tmpfile, "text/plain").
		AddFile("doc", tmpfile, "application/pdf").
		AddFile("ignored", nil, "")
	assert.Equal(t, 1, req.Files().Len())
	doc, _ := req.Files().Get("doc")
	assert.Equal(t, "application/pdf", doc.ContentType)

	assert.True(t, req.HasEntities())
}

func TestHeaders(t *testing.T) {
	req := New("http://api.example.com").
		AddHeader("X-B", "1").
		AddHeader("X-A", "2").
		AddHeader("X-B", "3")

	assert.Equal(t, []string{"X-B", "X-A"}, keys(req.Headers()))
	v, _ := req.Headers().Get("X-B")
	assert.Equal(t, "3", v)

	req.SetHeaders(nil)
	assert.Equal(t, 0, req.Headers().Len())
}

func TestURLPrefixSuffix(t *testing.T) {
	req := New("api.example.com/").AddURLPrefix("https://").AddURLSuffix("items/3")
	assert.Equal(t, "https://api.example.com/items/3", req.RawURL())

	req.SetURL("http://other")
	assert.Equal(t, "http://other", req.RawURL())
}

func TestSettersAndDefaults(t *testing.T) {
	req := New("http://api.example.com")
	assert.Equal(t, MethodGet, req.Method())
	assert.Equal(t, DefaultCharset, req.Charset())
	assert.Equal(t, DefaultMaxRetries, req.MaxRetries())
	assert.IsType(t, parser.StringParser{}, req.Parser())
	assert.IsType(t, query.JSONBuilder{}, req.QueryBuilder())
	assert.NotNil(t, req.Logger())

	req.SetMethod(MethodPost).SetCharset("").SetMaxRetries(-2).SetParser(parser.BytesParser{}).SetModel("m")
	assert.Equal(t, MethodPost, req.Method())
	assert.Equal(t, DefaultCharset, req.Charset())
	assert.Equal(t, 0, req.MaxRetries())
	assert.IsType(t, parser.BytesParser{}, req.Parser())
	assert.Equal(t, "m", req.Model())

	params := query.NewMap()
	params.Set("k", "v")
	req.SetParams(params)
	assert.Equal(t, []string{"k"}, keys(req.Params()))
	req.SetParams(nil)
	assert.Equal(t, 0, req.Params().Len())
}

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	req := New("http://api.example.com",
		WithMethod(MethodPut),
		WithParser(parser.BytesParser{}),
		WithParser(nil),
		WithQueryBuilder(nil),
		WithMaxRetries(5),
		WithLogger(logger),
	)

	assert.Equal(t, MethodPut, req.Method())
	assert.IsType(t, parser.BytesParser{}, req.Parser())
	assert.IsType(t, query.JSONBuilder{}, req.QueryBuilder())
	assert.Equal(t, 5, req.MaxRetries())
	assert.Same(t, logger, req.Logger())
}

func TestURL_LogsAtDebug(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New("http://api.example.com", WithLogger(logger)).AddParam("a", "b").URL()
	require.NoError(t, err)

	assert.Contains(t, buffer.String(), "level=DEBUG")
	assert.Contains(t, buffer.String(), "http://api.example.com?a=b")
}

func TestAbort(t *testing.T) {
	req := New("http://api.example.com")
	req.Abort()

	calls := 0
	req.SetAbort(AbortFunc(func() { calls++ }))
	req.Abort()
	req.Abort()
	assert.Equal(t, 2, calls)

	req.SetAbort(nil)
	req.Abort()
	assert.Equal(t, 2, calls)
}

func TestString(t *testing.T) {
	req := New("http://api.example.com", WithModel(&itemParams{ID: "1"})).
		AddHeader("Accept", "application/json").
		AddParam("a", "b").
		AddBytes([]byte("xyz"), "application/octet-stream").
		AddStream("s", strings.NewReader(""), "s.txt", "text/plain")

	dump := req.String()

	expected := []string{
		"\turl = http://api.example.com",
		"\n\tmethod = GET",
		"\n\theaders = {Accept=application/json}",
		"\n\tcharset = UTF-8",
		"\n\tmaxRetries = 3",
		"\n\tmodel = &{ID:1 Sort:}",
		"\n\tparser = StringParser",
		"\n\tqueryBuilder = JSONBuilder",
		"\n\tparams = {a=b}",
		"\n\tstreams = {s=InputStream{name=s.txt, contentType=text/plain}}",
		"\n\tfiles = {}",
		"\n\tbyteArrays = [ByteArray{size=3B, contentType=application/octet-stream}]",
		"\n\tstrings = []",
	}
	assert.Equal(t, strings.Join(expected, ""), dump)

	req.SetParser(nil).SetQueryBuilder(nil)
	assert.Contains(t, req.String(), "parser = nil")
	assert.Contains(t, req.String(), "queryBuilder = nil")
}
