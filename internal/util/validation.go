package util

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/porton/gate-relay/internal/schedule"
)

var pinRegex = regexp.MustCompile(`^[A-Za-z0-9]{4,10}$`)

func IsValidPIN(pin string) bool {
	return pinRegex.MatchString(pin)
}

var validate = newValidator()

// newValidator registers the "pin" and "clock" tags and reports fields by
// their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return IsValidPIN(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseClock(fl.Field().String())
		return err == nil
	})

	return v
}

// ValidateStruct checks s against its validate tags. On failure it returns
// the offending JSON field names mapped to the failed rule.
func ValidateStruct(s any) (map[string]string, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fe.Tag()
	}
	return fields, err
}

// fieldPath drops the struct name prefix: "params.days[2]" -> "days[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
