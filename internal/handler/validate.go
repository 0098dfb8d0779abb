package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names rather than Go names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of v and turns the first failure
// into a short message such as "lat must be at most 90".
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "gte", "min":
		if fe.Kind() == reflect.String {
			return fmt.Errorf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		if fe.Kind() == reflect.String {
			return fmt.Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Errorf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", fe.Field(), fe.Param())
	case "eqfield":
		return fmt.Errorf("%s must match %s", fe.Field(), strings.ToLower(fe.Param()))
	}
	return fmt.Errorf("%s is invalid", fe.Field())
}
