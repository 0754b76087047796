// Package entity defines the request body payloads a Request can carry
// besides its key/value parameters.
package entity

import (
	"fmt"
	"io"
	"os"

	"code.cloudfoundry.org/bytefmt"
)

const (
	DefaultBinaryType = "application/octet-stream"
	DefaultTextType   = "text/plain"
)

// ByteArray is a raw byte payload.
type ByteArray struct {
	Bytes       []byte
	ContentType string
}

func (e *ByteArray) String() string {
	return fmt.Sprintf("ByteArray{size=%s, contentType=%s}",
		bytefmt.ByteSize(uint64(len(e.Bytes))), e.ContentType)
}

// String is a textual payload. Charset names the encoding the text is
// converted to when the body is written.
type String struct {
	Text     string
	MimeType string
	Charset  string
}

func (e *String) String() string {
	return fmt.Sprintf("String{size=%s, mimeType=%s, charset=%s}",
		bytefmt.ByteSize(uint64(len(e.Text))), e.MimeType, e.Charset)
}

// InputStream is a streaming payload. The reader is not owned by the
// request; whoever opened it closes it.
type InputStream struct {
	Reader      io.Reader
	Name        string
	ContentType string
}

func (e *InputStream) String() string {
	return fmt.Sprintf("InputStream{name=%s, contentType=%s}", e.Name, e.ContentType)
}

// File is a payload read from an already opened file. The file is not
// owned by the request.
type File struct {
	File        *os.File
	ContentType string
}

func (e *File) String() string {
	name := "<nil>"
	if e.File != nil {
		name = e.File.Name()
	}
	return fmt.Sprintf("File{name=%s, contentType=%s}", name, e.ContentType)
}
