// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MinReasonLength is the minimum length for ban/rejection reasons.
	MinReasonLength = 10
	// MaxNotesLength caps admin review notes.
	MaxNotesLength = 500
	// MaxVerificationImages caps document images per submission.
	MaxVerificationImages = 3
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return fmt.Errorf("password must be at least 12 characters long")
	}

	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	hasUpper := false
	hasLower := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if !regexp.MustCompile(`[0-9]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}

	if !regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`).MatchString(password) {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}

	return nil
}

// ValidateEmail checks basic email address shape.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("email address is invalid")
	}
	return nil
}

// ValidatePhone checks basic phone number shape (digits, optional leading +).
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("phone number is invalid")
	}
	return nil
}

// ValidateName checks a display name component.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("name must not exceed 100 characters")
	}
	return nil
}

// ValidateReason checks the free-text reason for reject/ban transitions.
func ValidateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if len(reason) < MinReasonLength {
		return fmt.Errorf("reason must be at least %d characters long", MinReasonLength)
	}
	if len(reason) > 1000 {
		return fmt.Errorf("reason must not exceed 1000 characters")
	}
	return nil
}

// ValidateNotes checks optional review notes.
func ValidateNotes(notes string) error {
	if len(notes) > MaxNotesLength {
		return fmt.Errorf("notes must not exceed %d characters", MaxNotesLength)
	}
	return nil
}

// ValidateImagePaths checks a document image path list (1 to 3 entries).
func ValidateImagePaths(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("at least one document image is required")
	}
	if len(paths) > MaxVerificationImages {
		return fmt.Errorf("at most %d document images are allowed", MaxVerificationImages)
	}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("image paths must not be empty")
		}
		if len(p) > 255 {
			return fmt.Errorf("image path is too long")
		}
	}
	return nil
}
