// Package validation wires go-playground/validator with inventory-specific rules.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance with custom rules registered.
var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	_ = Validate.RegisterValidation("vehicle_year", validateVehicleYear)
	_ = Validate.RegisterValidation("vin", validateVIN)
}

// validateVehicleYear accepts model years from 1900 through next year.
func validateVehicleYear(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	return year >= 1900 && year <= time.Now().Year()+1
}

// validateVIN accepts empty values or exactly 17 characters.
func validateVIN(fl validator.FieldLevel) bool {
	vin := fl.Field().String()
	return vin == "" || len(vin) == 17
}

// ValidateStruct validates s and returns a readable aggregate error.
func ValidateStruct(s interface{}) error {
	if err := Validate.Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			messages := make([]string, 0, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				messages = append(messages, formatFieldError(fieldErr))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
		}
		return err
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "vehicle_year":
		return fmt.Sprintf("%s must be between 1900 and %d", fe.Field(), time.Now().Year()+1)
	case "vin":
		return fmt.Sprintf("%s must be 17 characters", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
