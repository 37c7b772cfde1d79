package records

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// GitHubPrefix is the required prefix for profile GitHub links.
const GitHubPrefix = "https://github.com/"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Error messages use the human label instead of the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})

	_ = v.RegisterValidation("maxwords", maxWords)
	_ = v.RegisterValidation("github", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), GitHubPrefix)
	})
	return v
}

// maxWords counts whitespace-separated words, the same way a bio is read.
func maxWords(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(strings.Fields(fl.Field().String())) <= limit
}

// ValidationError lists every rule an input broke, as user-facing sentences.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, " ")
}

// Validate checks a record, update or params struct against its validate
// tags. It returns nil or a *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating %T: %w", v, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required."
	case "max":
		if fe.Kind() != reflect.String {
			return fmt.Sprintf("%s must be at most %s.", field, fe.Param())
		}
		return fmt.Sprintf("%s must be %s characters or fewer.", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must not be empty."
		}
		return fmt.Sprintf("%s must be at least %s.", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters.", field, fe.Param())
	case "maxwords":
		return fmt.Sprintf("%s must be %s words or fewer.", field, fe.Param())
	case "github":
		return field + " must be a valid GitHub profile URL."
	default:
		return field + " is invalid."
	}
}
