package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	eventIDPattern   = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the custom tags registered.
// Field names in errors come from json tags.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("eventid", func(fl validator.FieldLevel) bool {
			return eventIDPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("studentid", func(fl validator.FieldLevel) bool {
			return studentIDPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("eventstatus", func(fl validator.FieldLevel) bool {
			return models.EventStatus(fl.Field().String()).Valid()
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns a field -> message map, or nil when s is
// valid.
func Struct(s any) map[string]string {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"non_field_errors": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return fields
}

// Check validates s and converts failures into an apperrors validation error
// merged with extra.
func Check(s any, extra map[string]string) error {
	fields := Struct(s)
	for k, v := range extra {
		if fields == nil {
			fields = make(map[string]string)
		}
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperrors.Validation(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is at least %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "lt":
		return fmt.Sprintf("Ensure this value is less than %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "eventid":
		return "Event ID can only contain letters, numbers, and hyphens."
	case "studentid":
		return "Student ID can only contain letters, numbers, underscores, and hyphens."
	case "eventstatus":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "gtefield":
		return fmt.Sprintf("Must not be earlier than %s.", strings.ToLower(fe.Param()))
	case "numeric":
		return "Enter a number."
	case "datetime":
		return fmt.Sprintf("Enter a valid date in %s format.", fe.Param())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
