package exchange

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/nojima/litehttp-go/charset"
	"github.com/nojima/litehttp-go/entity"
	"github.com/nojima/litehttp-go/request"
	"github.com/nojima/litehttp-go/version"
	"github.com/pkg/errors"
)

func BuildHTTPRequest(ctx context.Context, req *request.Request, options *Options) (*http.Request, error) {
	u, err := req.URL()
	if err != nil {
		return nil, err
	}

	header := buildHTTPHeader(req)

	bodyTuple, err := buildHTTPBody(req)
	if err != nil {
		return nil, err
	}

	if header.Get("Content-Type") == "" && bodyTuple.contentType != "" {
		header.Set("Content-Type", bodyTuple.contentType)
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", fmt.Sprintf("litehttp-go/%s", version.Current()))
	}
	if options != nil && options.Auth.Enabled && header.Get("Authorization") == "" {
		header.Set("Authorization", "Basic "+basicCredentials(options.Auth))
	}

	method := string(req.Method())
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if bodyTuple.body != nil {
		body = bodyTuple.body
	}
	r, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building HTTP request for %s", u)
	}
	r.Header = header
	r.Host = header.Get("Host")
	return r, nil
}

func basicCredentials(auth AuthOptions) string {
	return base64.StdEncoding.EncodeToString([]byte(auth.UserName + ":" + auth.Password))
}

func buildHTTPHeader(req *request.Request) http.Header {
	header := make(http.Header)
	for pair := req.Headers().Oldest(); pair != nil; pair = pair.Next() {
		header.Set(pair.Key, pair.Value)
	}
	return header
}

type bodyTuple struct {
	body          *bytes.Reader
	contentLength int64
	contentType   string
}

func buildHTTPBody(req *request.Request) (bodyTuple, error) {
	byteArrays := req.ByteArrays()
	stringEntities := req.Strings()
	keyed := req.Streams().Len() + req.Files().Len()

	switch {
	case !req.HasEntities():
		return bodyTuple{}, nil
	case keyed == 0 && len(byteArrays) == 1 && len(stringEntities) == 0:
		return buildRawBody(byteArrays[0].Bytes, byteArrayContentType(byteArrays[0])), nil
	case keyed == 0 && len(byteArrays) == 0 && len(stringEntities) == 1:
		data, err := charset.Encode(stringEntities[0].Text, stringEntities[0].Charset)
		if err != nil {
			return bodyTuple{}, errors.Wrap(err, "encoding string entity")
		}
		return buildRawBody(data, stringContentType(stringEntities[0])), nil
	default:
		return buildMultipartBody(req)
	}
}

func buildRawBody(data []byte, contentType string) bodyTuple {
	return bodyTuple{
		body:          bytes.NewReader(data),
		contentLength: int64(len(data)),
		contentType:   contentType,
	}
}

func byteArrayContentType(e *entity.ByteArray) string {
	if e.ContentType == "" {
		return entity.DefaultBinaryType
	}
	return e.ContentType
}

func stringContentType(e *entity.String) string {
	mimeType := e.MimeType
	if mimeType == "" {
		mimeType = entity.DefaultTextType
	}
	if strings.Contains(mimeType, "charset=") || e.Charset == "" {
		return mimeType
	}
	return mimeType + "; charset=" + e.Charset
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(name, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name))
	if filename != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(filename))
	}
	h.Set("Content-Disposition", disposition)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

// buildMultipartBody writes string entities, byte entities, streams and
// files, in that order, as parts of one multipart/form-data body.
func buildMultipartBody(req *request.Request) (bodyTuple, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	for i, e := range req.Strings() {
		data, err := charset.Encode(e.Text, e.Charset)
		if err != nil {
			return bodyTuple{}, errors.Wrap(err, "encoding string entity")
		}
		if err := writePart(writer, partHeader(fmt.Sprintf("string%d", i), "", stringContentType(e)), bytes.NewReader(data)); err != nil {
			return bodyTuple{}, err
		}
	}
	for i, e := range req.ByteArrays() {
		if err := writePart(writer, partHeader(fmt.Sprintf("bytes%d", i), "", byteArrayContentType(e)), bytes.NewReader(e.Bytes)); err != nil {
			return bodyTuple{}, err
		}
	}
	for pair := req.Streams().Oldest(); pair != nil; pair = pair.Next() {
		e := pair.Value
		contentType := e.ContentType
		if contentType == "" {
			contentType = entity.DefaultBinaryType
		}
		if err := writePart(writer, partHeader(pair.Key, e.Name, contentType), e.Reader); err != nil {
			return bodyTuple{}, errors.Wrapf(err, "reading stream '%s'", pair.Key)
		}
	}
	for pair := req.Files().Oldest(); pair != nil; pair = pair.Next() {
		e := pair.Value
		contentType := e.ContentType
		if contentType == "" {
			contentType = entity.DefaultBinaryType
		}
		if err := writePart(writer, partHeader(pair.Key, filepath.Base(e.File.Name()), contentType), e.File); err != nil {
			return bodyTuple{}, errors.Wrapf(err, "reading file '%s'", pair.Key)
		}
	}

	if err := writer.Close(); err != nil {
		return bodyTuple{}, errors.Wrap(err, "closing multipart writer")
	}
	return bodyTuple{
		body:          bytes.NewReader(buffer.Bytes()),
		contentLength: int64(buffer.Len()),
		contentType:   writer.FormDataContentType(),
	}, nil
}

func writePart(writer *multipart.Writer, header textproto.MIMEHeader, content io.Reader) error {
	part, err := writer.CreatePart(header)
	if err != nil {
		return errors.Wrap(err, "creating multipart part")
	}
	if _, err := io.Copy(part, content); err != nil {
		return errors.Wrap(err, "writing multipart part")
	}
	return nil
}
