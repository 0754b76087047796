package query

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// JSONBuilder serializes the model with encoding/json and flattens the
// top-level object in field order. Strings are used verbatim, numbers and
// booleans by their literal, nested objects and arrays by their JSON text.
// Null fields are left out.
type JSONBuilder struct{}

func (JSONBuilder) BuildPrimaryMap(model any) (*Map, error) {
	if model == nil {
		return nil, nil
	}
	if m, ok := model.(Mapper); ok {
		params, err := m.QueryMap()
		if err != nil {
			return nil, errors.Wrapf(err, "building parameters of %T", model)
		}
		return params, nil
	}

	data, err := json.Marshal(model)
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling parameter model %T", model)
	}

	result := gjson.ParseBytes(data)
	if result.Type == gjson.Null {
		return nil, nil
	}
	if !result.IsObject() {
		return nil, errors.Errorf("parameter model %T does not encode to a JSON object", model)
	}

	params := NewMap()
	result.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Null:
		case gjson.String:
			params.Set(key.String(), value.String())
		default:
			params.Set(key.String(), value.Raw)
		}
		return true
	})
	return params, nil
}
