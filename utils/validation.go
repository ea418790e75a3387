package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// FieldValidationError represents a validation error for a specific field
type FieldValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldValidationErrors represents multiple field validation errors
type FieldValidationErrors []FieldValidationError

// Error implements the error interface
func (e FieldValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

var (
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	addressRegex     = regexp.MustCompile(`^[\p{L}\p{N}\s,.'#\-/]+$`)
	maxAddressLength = 300
)

// SanitizeString strips HTML tags and escapes what is left.
func SanitizeString(input string) string {
	return html.EscapeString(htmlTagRegex.ReplaceAllString(strings.TrimSpace(input), ""))
}

// ValidateStringLength validates string length
func ValidateStringLength(str string, min, max int) error {
	length := len(strings.TrimSpace(str))
	if length < min {
		return fmt.Errorf("must be at least %d characters long", min)
	}
	if length > max {
		return fmt.Errorf("must not exceed %d characters", max)
	}
	return nil
}

// ValidateOrderAddresses checks the free-form shipping and billing addresses
// captured at checkout. An empty billing address is allowed.
func ValidateOrderAddresses(shipping, billing string) FieldValidationErrors {
	var errs FieldValidationErrors
	check := func(field, value string, required bool) {
		value = strings.TrimSpace(value)
		if value == "" {
			if required {
				errs = append(errs, FieldValidationError{field, "Address is required"})
			}
			return
		}
		if err := ValidateStringLength(value, 5, maxAddressLength); err != nil {
			errs = append(errs, FieldValidationError{field, "Address " + err.Error()})
		}
		if !addressRegex.MatchString(value) {
			errs = append(errs, FieldValidationError{field, "Address contains invalid characters"})
		}
	}
	check("shipping_address", shipping, true)
	check("billing_address", billing, false)
	return errs
}
