// Package validate holds the pure format checks applied to registration data.
// Every function is total: any string yields a boolean, never a panic.
package validate

import "regexp"

var (
	phonePattern    = regexp.MustCompile(`^\+27\d{9}$`)
	namePattern     = regexp.MustCompile(`^[A-Za-z]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// IsValidPhone accepts South African numbers in the form +27XXXXXXXXX.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsValidID accepts a national ID number of exactly 13 ASCII digits.
func IsValidID(s string) bool {
	return len(s) == 13 && digitsPattern.MatchString(s)
}

// IsValidName accepts one or more letters. Spaces, hyphens and digits are rejected.
func IsValidName(s string) bool {
	return namePattern.MatchString(s)
}

// IsValidUsername accepts alphanumeric usernames that are not purely numeric.
func IsValidUsername(s string) bool {
	return usernamePattern.MatchString(s) && !digitsPattern.MatchString(s)
}
