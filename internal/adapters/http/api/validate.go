package api

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the custom tags request structs use.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// display_text: printable text, no control characters.
	_ = v.RegisterValidation("display_text", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
	})
	return v
}

// describe flattens validation errors into one readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s fails %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
