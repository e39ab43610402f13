package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates the number has the wrong digit count
	ErrInvalidLength = errors.New("phone number must be 10 digits (07XX/01XX) or 12 digits (2547XX/2541XX)")

	// ErrInvalidPrefix indicates the number is not a Kenyan mobile number
	ErrInvalidPrefix = errors.New("phone number must start with 07 or 01")

	// ErrInvalidFormat indicates the number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates the number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator validates Kenyan mobile numbers and normalizes them to
// the 2547XXXXXXXX MSISDN format the Daraja API requires
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a Kenyan mobile number.
// Accepts formats: 0712345678, +254712345678, 254712345678, 0712 345 678.
// Returns the number normalized to 254XXXXXXXXX.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	// Local format: 07XXXXXXXX or 01XXXXXXXX
	if len(sanitized) == 10 {
		if !strings.HasPrefix(sanitized, "07") && !strings.HasPrefix(sanitized, "01") {
			return "", ErrInvalidPrefix
		}
		return "254" + sanitized[1:], nil
	}

	// MSISDN format: 2547XXXXXXXX or 2541XXXXXXXX
	if len(sanitized) == 12 {
		if !strings.HasPrefix(sanitized, "2547") && !strings.HasPrefix(sanitized, "2541") {
			return "", ErrInvalidPrefix
		}
		return sanitized, nil
	}

	return "", ErrInvalidLength
}

// Sanitize removes separators and a leading + from a phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")
	return phone
}

// Format formats a number in the local display format: 07XX XXX XXX
func (v *PhoneValidator) Format(phone string) (string, error) {
	msisdn, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	local := "0" + msisdn[3:]
	return fmt.Sprintf("%s %s %s", local[0:4], local[4:7], local[7:10]), nil
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
