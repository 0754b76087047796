package input

import (
	"encoding/json"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nojima/litehttp-go/charset"
	"github.com/nojima/litehttp-go/request"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	reMethod          = regexp.MustCompile(`^[a-zA-Z]+$`)
	reHeaderFieldName = regexp.MustCompile("^[-!#$%&'*+.^_|~a-zA-Z0-9]+$")
	reScheme          = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-.]*://`)
)

type itemType int

const (
	unknownItem itemType = iota
	httpHeaderItem
	urlParameterItem
	dataFieldItem
	rawJSONFieldItem
	formFileFieldItem
)

type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

type state struct {
	preferredBodyType BodyType
	stdinConsumed     bool
	body              Body
}

// ParseArgs turns "[METHOD] URL [ITEM...]" into a request. Files named by
// form file items are opened here; the caller releases them with CloseFiles.
func ParseArgs(args []string, stdin io.Reader, options *Options) (*request.Request, error) {
	if options == nil {
		options = &Options{MaxRetries: request.DefaultMaxRetries}
	}

	var argMethod string
	var argURL string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, newUsageError("URL is required")
	case 1:
		argURL = args[0]
	default:
		if reMethod.MatchString(args[0]) {
			argMethod = args[0]
			argURL = args[1]
			argItems = args[2:]
		} else {
			argURL = args[0]
			argItems = args[1:]
		}
	}

	u, err := parseURL(argURL)
	if err != nil {
		return nil, err
	}
	req := request.New(u.String(),
		request.WithCharset(options.Charset),
		request.WithMaxRetries(options.MaxRetries),
		request.WithLogger(options.Logger),
	)

	state := state{}
	state.preferredBodyType, err = determinePreferredBodyType(options)
	if err != nil {
		return nil, err
	}

	if options.ParamsFile != "" {
		model, err := loadParams(options.ParamsFile)
		if err != nil {
			return nil, err
		}
		if model != nil {
			req.SetModel(model)
		}
	}

	for _, arg := range argItems {
		if err := parseItem(arg, stdin, &state, req); err != nil {
			return nil, err
		}
	}
	if options.ReadStdin && !state.stdinConsumed {
		if state.body.BodyType != EmptyBody {
			return nil, errors.New("request body (from stdin) and request item (key=value) cannot be mixed")
		}
		state.body.BodyType = RawBody
		state.body.Raw, err = io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		state.stdinConsumed = true
	}

	if err := buildBody(req, &state.body); err != nil {
		CloseFiles(req)
		return nil, err
	}

	if argMethod != "" {
		method, err := parseMethod(argMethod)
		if err != nil {
			CloseFiles(req)
			return nil, err
		}
		req.SetMethod(method)
	} else {
		req.SetMethod(guessMethod(&state.body))
	}

	return req, nil
}

// CloseFiles closes every file entity of req.
func CloseFiles(req *request.Request) {
	for pair := req.Files().Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.File.Close()
	}
}

func determinePreferredBodyType(options *Options) (BodyType, error) {
	if options.JSON && options.Form {
		return EmptyBody, errors.New("You cannot specify both of --json and --form")
	}
	if options.Form {
		return FormBody, nil
	} else {
		return JSONBody, nil
	}
}

func parseMethod(s string) (request.Method, error) {
	if !reMethod.MatchString(s) {
		return "", errors.Errorf("METHOD must consist of alphabets: %s", s)
	}
	return request.Method(strings.ToUpper(s)), nil
}

func guessMethod(body *Body) request.Method {
	if body.BodyType == EmptyBody {
		return request.MethodGet
	} else {
		return request.MethodPost
	}
}

func parseURL(s string) (*url.URL, error) {
	defaultScheme := "http"
	defaultHost := "localhost"

	// ex) :8080/hello or /hello
	if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "/") {
		s = defaultHost + s
	}

	// ex) example.com/hello
	if !reScheme.MatchString(s) {
		s = defaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, newUsageError("Invalid URL: " + s)
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

func parseItem(s string, stdin io.Reader, state *state, req *request.Request) error {
	itemType, name, value := splitItem(s)
	switch itemType {
	case dataFieldItem:
		state.body.BodyType = state.preferredBodyType
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		state.body.Fields = append(state.body.Fields, field)
	case rawJSONFieldItem:
		if state.preferredBodyType != JSONBody {
			return errors.New("raw JSON field item cannot be used in non-JSON body")
		}
		state.body.BodyType = JSONBody
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		field.Value, err = resolveValue(field)
		if err != nil {
			return err
		}
		if !json.Valid([]byte(field.Value)) {
			return errors.Errorf("invalid JSON at '%s': %s", name, field.Value)
		}
		state.body.RawJSONFields = append(state.body.RawJSONFields, field)
	case httpHeaderItem:
		if !isValidHeaderFieldName(name) {
			return errors.Errorf("invalid header field name: %s", name)
		}
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		v, err := resolveValue(field)
		if err != nil {
			return err
		}
		req.AddHeader(name, v)
	case urlParameterItem:
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		v, err := resolveValue(field)
		if err != nil {
			return err
		}
		req.AddParam(name, v)
	case formFileFieldItem:
		if state.preferredBodyType != FormBody {
			return errors.New("form file field item cannot be used in non-form body (perhaps you meant --form?)")
		}
		state.body.BodyType = FormBody
		field, err := parseField(name, "@"+value, stdin, state)
		if err != nil {
			return err
		}
		state.body.Files = append(state.body.Files, field)
	default:
		return errors.Errorf("unknown request item: %s", s)
	}
	return nil
}

func splitItem(s string) (itemType, string, string) {
	for i, c := range s {
		switch c {
		case ':':
			if i+1 < len(s) && s[i+1] == '=' {
				return rawJSONFieldItem, s[:i], s[i+2:]
			} else {
				return httpHeaderItem, s[:i], s[i+1:]
			}
		case '=':
			if i+1 < len(s) && s[i+1] == '=' {
				return urlParameterItem, s[:i], s[i+2:]
			} else {
				return dataFieldItem, s[:i], s[i+1:]
			}
		case '@':
			return formFileFieldItem, s[:i], s[i+1:]
		}
	}
	return unknownItem, "", ""
}

func isValidHeaderFieldName(s string) bool {
	return reHeaderFieldName.MatchString(s)
}

func parseField(name, value string, stdin io.Reader, state *state) (Field, error) {
	if strings.HasPrefix(value, "@") {
		if value[1:] == "-" {
			b, err := io.ReadAll(stdin)
			if err != nil {
				return Field{}, errors.Wrapf(err, "reading stdin for '%s'", name)
			}
			state.stdinConsumed = true
			return Field{Name: name, Value: string(b), IsFile: false}, nil
		} else {
			return Field{Name: name, Value: value[1:], IsFile: true}, nil
		}
	} else {
		return Field{Name: name, Value: value, IsFile: false}, nil
	}
}

// resolveValue returns the field's value, reading it from the named file
// when the item used the "@path" form.
func resolveValue(field Field) (string, error) {
	if !field.IsFile {
		return field.Value, nil
	}
	b, err := os.ReadFile(field.Value)
	if err != nil {
		return "", errors.Wrapf(err, "reading '%s' for '%s'", field.Value, field.Name)
	}
	return string(b), nil
}

func buildBody(req *request.Request, body *Body) error {
	switch body.BodyType {
	case JSONBody:
		return buildJSONBody(req, body)
	case FormBody:
		if len(body.Files) > 0 {
			return buildMultipartBody(req, body)
		}
		return buildFormBody(req, body)
	case RawBody:
		req.AddBytes(body.Raw, mimetype.Detect(body.Raw).String())
	}
	return nil
}

func buildJSONBody(req *request.Request, body *Body) error {
	obj := orderedmap.New[string, any]()
	for _, field := range body.Fields {
		value, err := resolveValue(field)
		if err != nil {
			return err
		}
		obj.Set(field.Name, value)
	}
	for _, field := range body.RawJSONFields {
		obj.Set(field.Name, json.RawMessage(field.Value))
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrap(err, "marshaling JSON body")
	}
	req.AddString(string(b), "application/json", "")
	return nil
}

func buildFormBody(req *request.Request, body *Body) error {
	var pairs []string
	for _, field := range body.Fields {
		value, err := resolveValue(field)
		if err != nil {
			return err
		}
		name, err := charset.QueryEscape(field.Name, req.Charset())
		if err != nil {
			return err
		}
		value, err = charset.QueryEscape(value, req.Charset())
		if err != nil {
			return err
		}
		pairs = append(pairs, name+"="+value)
	}
	req.AddString(strings.Join(pairs, "&"), "application/x-www-form-urlencoded", "")
	return nil
}

func buildMultipartBody(req *request.Request, body *Body) error {
	for _, field := range body.Fields {
		value, err := resolveValue(field)
		if err != nil {
			return err
		}
		req.AddStream(field.Name, strings.NewReader(value), "", "text/plain; charset=utf-8")
	}
	for _, field := range body.Files {
		if err := addFile(req, field); err != nil {
			return err
		}
	}
	return nil
}

func addFile(req *request.Request, field Field) error {
	contentType := ""
	if mtype, err := mimetype.DetectFile(field.Value); err == nil {
		contentType = mtype.String()
	}
	file, err := os.Open(field.Value)
	if err != nil {
		return errors.Wrapf(err, "opening '%s' for '%s'", field.Value, field.Name)
	}
	if previous, ok := req.Files().Get(field.Name); ok {
		previous.File.Close()
	}
	req.AddFile(field.Name, file, contentType)
	return nil
}
