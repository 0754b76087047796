package query

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("query: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidatingBuilder checks `validate` struct tags before handing the model
// to Next. Models that are not structs are passed through unchecked.
type ValidatingBuilder struct {
	Next Builder
}

func NewValidatingBuilder(next Builder) *ValidatingBuilder {
	if next == nil {
		next = JSONBuilder{}
	}
	return &ValidatingBuilder{Next: next}
}

func (b *ValidatingBuilder) BuildPrimaryMap(model any) (*Map, error) {
	if model == nil {
		return nil, nil
	}
	if err := validate.Struct(model); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return nil, validationError(err)
		}
	}
	return b.Next.BuildPrimaryMap(model)
}

func validationError(err error) error {
	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return errors.Wrap(err, "validating parameter model")
	}
	parts := make([]string, len(verrors))
	for i, verror := range verrors {
		parts[i] = verror.Field() + ": " + verror.Translate(translator)
	}
	return errors.Errorf("invalid parameter model: %s", strings.Join(parts, "; "))
}
