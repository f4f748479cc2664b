package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/badoux/checkmail"

	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
)

const (
	minNameLength     = 3
	minPasswordLength = 6
	minCodeLength     = 6
)

// User-facing messages.
const (
	MsgCredentialsRequired = "Please enter your email and password."
	MsgInvalidCredentials  = "Incorrect email or password. Please try again."
	MsgNameTooShort        = "Name must be at least 3 characters long."
	MsgInvalidEmail        = "Please enter a valid email address."
	MsgPasswordTooShort    = "Password must be at least 6 characters long."
	MsgCodeRequired        = "Please enter the verification code."
	MsgCodeTooShort        = "Verification code must be at least 6 characters long."
	MsgEmailRegistered     = "This email is already registered. Please log in instead."
	MsgCheckInformation    = "Registration failed. Please check your information and try again."
	MsgNoAccount           = "No account found with this email address."
	MsgRateLimited         = "Too many attempts. Please wait a few minutes and try again."
	MsgResetFailed         = "Could not reset your password. Please check the code and try again."
	MsgLogoutFailed        = "Could not reach the server to log out. You have been signed out on this device."
	MsgExternalLoginFailed = "Sign-in with your external account failed. Please try again."
)

// ValidateName requires at least three characters after trimming.
func ValidateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLength {
		return apperrors.Validation("name", MsgNameTooShort)
	}
	return nil
}

// ValidateEmail requires a local@domain.tld shape.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return apperrors.Validation("email", MsgInvalidEmail)
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return apperrors.Validation("email", MsgInvalidEmail)
	}
	return nil
}

// ValidatePassword requires at least six characters.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperrors.Validation("password", MsgPasswordTooShort)
	}
	return nil
}

// ValidateCode requires a non-empty verification code of at least six characters.
func ValidateCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.Validation("code", MsgCodeRequired)
	}
	if utf8.RuneCountInString(code) < minCodeLength {
		return apperrors.Validation("code", MsgCodeTooShort)
	}
	return nil
}

// ValidateRegistration applies the registration rules in order and reports
// the first one that fails.
func ValidateRegistration(name, email, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}
