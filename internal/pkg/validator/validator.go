package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Role validation
	validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		validRoles := []string{"artist", "engineer", "producer", "stoodio"}
		for _, r := range validRoles {
			if role == r {
				return true
			}
		}
		return false
	})

	// Booking request type validation
	validate.RegisterValidation("request_type", func(fl validator.FieldLevel) bool {
		rt := fl.Field().String()
		validTypes := []string{"FIND_AVAILABLE", "SPECIFIC_ENGINEER", "BRING_YOUR_OWN"}
		for _, t := range validTypes {
			if rt == t {
				return true
			}
		}
		return false
	})

	// Subscription tier validation
	validate.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		tier := fl.Field().String()
		validTiers := []string{"FREE", "PLUS", "PRO"}
		for _, t := range validTiers {
			if tier == t {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "role":
			errors[field] = "Invalid role. Must be: artist, engineer, producer, or stoodio"
		case "request_type":
			errors[field] = "Invalid request type. Must be: FIND_AVAILABLE, SPECIFIC_ENGINEER, or BRING_YOUR_OWN"
		case "tier":
			errors[field] = "Invalid tier. Must be: FREE, PLUS, or PRO"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
