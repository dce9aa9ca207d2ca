package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var xmlNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
			_, err := regexp.Compile(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("xmlname", func(fl validator.FieldLevel) bool {
			return xmlNamePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks cfg and returns ValidationErrors describing every
// offending field.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationErrors{{Message: "configuration is nil"}}
	}

	err := structValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Path:    fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "regexp":
		return fmt.Sprintf("invalid regular expression %q", fe.Value())
	case "xmlname":
		return fmt.Sprintf("invalid XML element name %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
