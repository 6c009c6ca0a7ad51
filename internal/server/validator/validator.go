package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/nulzo/analytics-api/internal/series"
)

// trans is a private global translator
var trans ut.Translator

// InitValidator configures gin's validator engine: field names come from the
// form or json tag, messages are English, and the "isodate" rule accepts
// YYYY-MM-DD or an RFC 3339 timestamp.
func InitValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(fieldName)

	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := series.ParseDate(fl.Field().String())
		return err == nil
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")

	_ = en_translations.RegisterDefaultTranslations(v, trans)
	_ = v.RegisterTranslation("isodate", trans, func(ut ut.Translator) error {
		return ut.Add("isodate", "{0} must be a date in YYYY-MM-DD format", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("isodate", fe.Field())
		return t
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// ParseValidationError converts raw binding errors into a field -> message map.
func ParseValidationError(err error) map[string]string {
	errMap := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			ns := e.Namespace()

			if i := strings.Index(ns, "."); i != -1 {
				ns = ns[i+1:]
			}

			msg := e.Field() + " is invalid"
			if trans != nil {
				msg = e.Translate(trans)
			}

			if e.Tag() == "oneof" {
				msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
			}

			errMap[ns] = msg
		}
		return errMap
	}

	errMap["query"] = "Malformed query parameters: " + err.Error()
	return errMap
}
