package query

import (
	"sort"
	"strings"

	qs "github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// ValuesBuilder translates structs carrying `url` tags. Keys come out
// sorted; a key with several values is joined with Separator (default ",").
type ValuesBuilder struct {
	Separator string
}

func (b ValuesBuilder) BuildPrimaryMap(model any) (*Map, error) {
	if model == nil {
		return nil, nil
	}
	values, err := qs.Values(model)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding parameter model %T", model)
	}

	sep := b.Separator
	if sep == "" {
		sep = ","
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := NewMap()
	for _, key := range keys {
		params.Set(key, strings.Join(values[key], sep))
	}
	return params, nil
}
