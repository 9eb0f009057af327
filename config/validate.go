package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/opd-ai/denoisefx/provider"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator with the provider and strength
// tags registered.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
			_, err := provider.ParseKind(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("strength", func(fl validator.FieldLevel) bool {
			_, err := ParseStrength(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// validateStruct runs the struct tags and flattens the result into a single
// ErrInvalidSettings error.
func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, fmt.Sprintf("%s: failed %q (value %v)", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(messages, "; "))
}
