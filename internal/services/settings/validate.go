package settings

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	perr "gwdata/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

// initValidator builds the singleton validator with english translations
// and yaml tag names so messages point at document keys, not Go fields
func initValidator() {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("yaml")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vInst = v
		vTrans = trans
	})
}

// validate runs struct validation and folds field errors into one
// Validation-coded error with translated messages
func validate(s *Settings) error {
	initValidator()
	err := vInst.Struct(s)
	if err == nil {
		return nil
	}
	var ferrs validator.ValidationErrors
	if !errors.As(err, &ferrs) {
		return perr.Wrap(err, perr.ErrorCodeValidation, "settings validation failed")
	}
	msgs := make([]string, 0, len(ferrs))
	for _, fe := range ferrs {
		msgs = append(msgs, fe.Translate(vTrans))
	}
	return perr.Validationf("settings invalid: %s", strings.Join(msgs, "; "))
}
