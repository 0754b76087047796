package request

import (
	"github.com/nojima/litehttp-go/query"
)

// BasicParams merges the explicit parameters with the ones the query
// builder derives from the model. Explicit entries are copied first, in
// insertion order; model entries are set afterwards, so on a shared key
// the model's value wins while the key keeps its explicit position.
func (r *Request) BasicParams() (*query.Map, error) {
	params := query.Clone(r.params)

	builder := r.queryBuilder
	if builder == nil {
		builder = query.JSONBuilder{}
	}
	modelParams, err := builder.BuildPrimaryMap(r.model)
	if err != nil {
		return nil, newTranslationError(typeName(builder), err)
	}
	query.Merge(params, modelParams)
	return params, nil
}
