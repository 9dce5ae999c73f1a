package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag      = "notblank"
	paymentMethodTag = "payment_method"
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report json names rather than Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(paymentMethodTag, paymentMethod)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, paymentMethodTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Struct validates v and returns field problems keyed by json name, or nil.
func Struct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(translator)
	}
	return out
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case paymentMethodTag:
		return fe.Field() + " must be one of kbz_pay, aya_pay, uab_pay"
	default:
		return fe.Field() + " is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}

// paymentMethod accepts string and enums.PaymentMethod fields.
func paymentMethod(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, known := enums.ParsePaymentMethod(fl.Field().String())
	return known
}
