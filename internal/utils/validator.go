// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate        = validator.New()
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)
)

func init() {
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("username", validateUsername)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateStrongPassword requires at least 8 characters drawing on every
// character class: upper, lower, digit, and punctuation or symbol.
func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	classes := []func(rune) bool{
		unicode.IsUpper,
		unicode.IsLower,
		unicode.IsNumber,
		func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) },
	}
	for _, class := range classes {
		if strings.IndexFunc(password, class) < 0 {
			return false
		}
	}
	return true
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: validationMessage(e),
			})
		}
	}

	return validationErrors
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "required_if":
		return e.Field() + " is required for this decision"
	case "email":
		return "Invalid email format"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "strong_password":
		return "Password must contain at least 8 characters with uppercase, lowercase, number, and special character"
	case "username":
		return "Username must be 3-50 characters and contain only letters, numbers, and underscores"
	default:
		return e.Field() + " is invalid"
	}
}
