package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Validator wraps validator/v10 with the salon's field rules:
//
//	date  YYYY-MM-DD
//	clock HH:MM (24h)
//	phone ten digits, the local mobile format customers register with
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("date", stringRule(func(s string) bool {
		_, err := time.Parse(time.DateOnly, s)
		return err == nil
	}))
	_ = v.RegisterValidation("clock", stringRule(func(s string) bool {
		_, err := time.Parse("15:04", s)
		return err == nil
	}))
	_ = v.RegisterValidation("phone", stringRule(phonePattern.MatchString))

	return &Validator{v: v}
}

func stringRule(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, isString := fl.Field().Interface().(string)
		return isString && ok(value)
	}
}

func (v *Validator) Struct(s any) error {
	return v.v.Struct(s)
}

// Var checks a single value against a tag list such as "required,phone".
func (v *Validator) Var(value any, tag string) error {
	return v.v.Var(value, tag)
}

// Details maps each failing field (by json name) to the rule it broke.
// It returns nil for errors that are not validation failures.
func Details(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
