package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// usernameRegex matches valid Fractal usernames: lowercase letters,
// digits, dots, hyphens and underscores, starting with a letter.
var usernameRegex = regexp.MustCompile(`^[a-z][a-z0-9._-]*$`)

// ValidateUsername validates a username for registration and login.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Length between 2 and 64 characters
//   - Lowercase letters, digits, dots, hyphens and underscores only
//   - Must start with a letter
func ValidateUsername(name string) error {
	if name == "" {
		return New(ErrCodeInvalidUsername, "username cannot be empty")
	}

	if len(name) < 2 || len(name) > 64 {
		return New(ErrCodeInvalidUsername, "username must be 2-64 characters")
	}

	if !usernameRegex.MatchString(name) {
		return New(ErrCodeInvalidUsername, "invalid username: %q", name)
	}

	return nil
}

// ValidateEmail performs a light syntactic check on an email address.
// The API is the authority; this only rejects obviously malformed input
// before a request is made.
func ValidateEmail(email string) error {
	if email == "" {
		return New(ErrCodeInvalidEmail, "email cannot be empty")
	}

	if len(email) > 254 {
		return New(ErrCodeInvalidEmail, "email too long (max 254 characters)")
	}

	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return New(ErrCodeInvalidEmail, "invalid email: %q", email)
	}
	if strings.ContainsAny(email, " \t\n") {
		return New(ErrCodeInvalidEmail, "email cannot contain whitespace")
	}

	return nil
}

// ValidatePassword validates a password before sending it to the API.
//
// Validation rules:
//   - Minimum 8 characters
//   - Maximum 256 characters
//   - No control characters
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return New(ErrCodeInvalidPassword, "password must be at least 8 characters")
	}

	if len(password) > 256 {
		return New(ErrCodeInvalidPassword, "password too long (max 256 characters)")
	}

	for _, r := range password {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPassword, "password contains invalid control characters")
		}
	}

	return nil
}

// walletAddressRegex matches the canonical wallet address form:
// the "fr" prefix followed by at least two digits (body plus check digit).
var walletAddressRegex = regexp.MustCompile(`^fr[0-9]{2,32}$`)

// ValidateWalletAddress checks the shape of a wallet address string.
// It does not verify the check digit; use fractal.ParseWalletAddress for
// full validation.
func ValidateWalletAddress(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidWalletAddress, "wallet address cannot be empty")
	}

	if !walletAddressRegex.MatchString(addr) {
		return New(ErrCodeInvalidWalletAddress, "invalid wallet address: %q", addr)
	}

	return nil
}

// amountRegex matches a decimal credits amount with at most three
// fractional digits, e.g. "15", "15.7", "15.750".
var amountRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,3})?$`)

// ValidateAmountString checks the shape of a credits amount string.
// Amounts are unsigned with millicredit precision.
func ValidateAmountString(s string) error {
	if s == "" {
		return New(ErrCodeInvalidAmount, "amount cannot be empty")
	}

	if !amountRegex.MatchString(s) {
		return New(ErrCodeInvalidAmount, "invalid amount: %q (expected e.g. \"15.750\")", s)
	}

	return nil
}
