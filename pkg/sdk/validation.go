package sdk

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input limits applied before a request is sent.
const (
	MaxInputLen    = 200
	MinPasswordLen = 8
)

// ErrInvalidInput wraps every validation failure.
var ErrInvalidInput = errors.New("invalid input")

var emailRE = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// SanitizeInput trims s and caps it at max runes.
func SanitizeInput(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

// IsValidEmail reports whether s looks like a deliverable address.
func IsValidEmail(s string) bool {
	return emailRE.MatchString(s)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// RequireText sanitizes value and rejects it when nothing is left.
func RequireText(field, value string) (string, error) {
	v := SanitizeInput(value, MaxInputLen)
	if v == "" {
		return "", invalid("%s is required", field)
	}
	return v, nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return invalid("password must be at least %d characters", MinPasswordLen)
	}
	return nil
}

// ValidateSignUp sanitizes req in place and checks the required fields.
func ValidateSignUp(req *CreateUserRequest) error {
	var err error
	if req.Username, err = RequireText("username", req.Username); err != nil {
		return err
	}
	if req.Email, err = RequireText("email", req.Email); err != nil {
		return err
	}
	if !IsValidEmail(req.Email) {
		return invalid("email address %q is not valid", req.Email)
	}
	req.FirstName = SanitizeInput(req.FirstName, MaxInputLen)
	req.LastName = SanitizeInput(req.LastName, MaxInputLen)
	req.Phone = SanitizeInput(req.Phone, MaxInputLen)
	return ValidatePassword(req.Password)
}

// ValidateUserUpdate sanitizes the fields present in req. Fields that are set
// must not be blank, except for optional contact details.
func ValidateUserUpdate(req *UpdateUserRequest) error {
	required := []struct {
		field string
		value *string
	}{
		{"username", req.Username},
		{"email", req.Email},
	}
	for _, r := range required {
		if r.value == nil {
			continue
		}
		v, err := RequireText(r.field, *r.value)
		if err != nil {
			return err
		}
		*r.value = v
	}
	if req.Email != nil && !IsValidEmail(*req.Email) {
		return invalid("email address %q is not valid", *req.Email)
	}

	for _, v := range []*string{req.Phone, req.FirstName, req.LastName, req.Birthday} {
		if v != nil {
			*v = SanitizeInput(*v, MaxInputLen)
		}
	}
	if req.RoleID != nil && strings.TrimSpace(req.RoleID.String()) == "" {
		return invalid("role id is required")
	}
	return nil
}
