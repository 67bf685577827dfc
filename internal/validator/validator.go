// Package validator collects field-level validation errors for request data.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	playground "github.com/go-playground/validator/v10"
)

var (
	EmailRX    = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	UsernameRX = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	ColorRX    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

var structValidator = newStructValidator()

func newStructValidator() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	// Report fields by their JSON name so errors line up with the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validator holds a map of validation errors keyed by field name.
type Validator struct {
	Errors map[string]string
}

// New creates a Validator with an empty errors map.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the errors map doesn't contain any entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map, keeping the first message per key.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error message to the map only if a validation check is not 'ok'.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Struct validates s against its `validate` struct tags and records every failing field.
func (v *Validator) Struct(s interface{}) {
	err := structValidator.Struct(s)
	if err == nil {
		return
	}
	var fieldErrors playground.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		v.AddError("body", err.Error())
		return
	}
	for _, fe := range fieldErrors {
		v.AddError(fe.Field(), message(fe))
	}
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s bytes long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not be more than %s bytes long", fe.Param())
		}
		return fmt.Sprintf("must not be more than %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "hexcolor":
		return "must be a valid hex color"
	case "datetime":
		return fmt.Sprintf("must be a date in the format %s", fe.Param())
	case "alphanum":
		return "must only contain letters and digits"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// In returns true if a specific value is in a list of strings.
func In(value string, list ...string) bool {
	for i := range list {
		if value == list[i] {
			return true
		}
	}
	return false
}

// Matches returns true if a string value matches a specific regexp pattern.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

// Unique returns true if all string values in a slice are unique.
func Unique(values []string) bool {
	uniqueValues := make(map[string]bool)
	for _, value := range values {
		uniqueValues[value] = true
	}
	return len(values) == len(uniqueValues)
}

// Mime returns true if the detected MIME type is one of the allowed types.
func Mime(mtype *mimetype.MIME, list ...string) bool {
	return mimetype.EqualsAny(mtype.String(), list...)
}
