package input

import (
	"os"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// loadParams reads a YAML mapping whose entries become the parameter model,
// in file order. An empty document yields nil.
func loadParams(path string) (*orderedmap.OrderedMap[string, any], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading params file '%s'", path)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing params file '%s'", path)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("params file '%s' must contain a mapping", path)
	}

	params := orderedmap.New[string, any]()
	for i := 0; i+1 < len(root.Content); i += 2 {
		var value any
		if err := root.Content[i+1].Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "decoding '%s' in params file", root.Content[i].Value)
		}
		params.Set(root.Content[i].Value, value)
	}
	return params, nil
}
