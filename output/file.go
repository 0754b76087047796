package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var reIndexSuffix = regexp.MustCompile(`\.(\d+)$`)

// FileWriter saves a response body to a file. Unless overwriting is
// allowed, an existing file is never replaced; a numeric suffix is added
// to the name instead.
type FileWriter struct {
	fullPath string
}

func NewFileWriter(path string, overwrite bool) *FileWriter {
	if !overwrite {
		path = makeNonOverlappingFilename(path)
	}
	return &FileWriter{
		fullPath: path,
	}
}

func makeNonOverlappingFilename(path string) string {
	for {
		if _, err := os.Stat(path); err != nil {
			return path
		}
		newPath := reIndexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, _ := strconv.Atoi(strings.TrimPrefix(index, "."))
			return fmt.Sprintf(".%d", i+1)
		})
		if path == newPath {
			newPath = fmt.Sprintf("%s.%d", path, 1)
		}
		path = newPath
	}
}

// Write copies body into the file and returns the number of bytes written.
func (f *FileWriter) Write(body io.Reader) (int64, error) {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return 0, errors.Wrapf(err, "creating '%s'", f.fullPath)
	}
	defer file.Close()

	n, err := io.Copy(file, body)
	if err != nil {
		return n, errors.Wrapf(err, "writing '%s'", f.fullPath)
	}
	return n, nil
}

func (f *FileWriter) Path() string {
	return f.fullPath
}
