package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmailConflict      = "auth_email_exists"
	TextCodeUsernameConflict   = "auth_username_exists"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeEmailNotVerified   = "auth_email_not_verified"
	TextCodeInvalidCode        = "auth_invalid_code"
	TextCodeCodeExpired        = "auth_code_expired"
	TextCodeAlreadyVerified    = "auth_already_verified"
	TextCodeUserNotFound       = "auth_user_not_found"
	TextCodeAccountDisabled    = "auth_account_disabled"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
)

// ErrEmailConflict is returned when the email is already registered.
var ErrEmailConflict = errors.New("a user with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailConflict).
	WithCode(errors.CodeConflict)

// ErrUsernameConflict is returned when the username is already taken.
var ErrUsernameConflict = errors.New("a user with this username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameConflict).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is returned for both an unknown identifier and a
// wrong password. Callers never learn which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned when password login is attempted before
// the email has been verified.
var ErrEmailNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCode is returned when no user holds the given verification
// code, or the code does not match the outstanding one.
var ErrInvalidCode = errors.New("invalid verification code", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidCode).
	WithCode(errors.CodeBadRequest)

// ErrCodeExpired is returned when the verification code matched but its
// validity window has elapsed.
var ErrCodeExpired = errors.New("verification code expired", errors.CategoryBadInput).
	WithTextCode(TextCodeCodeExpired).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyVerified is returned when a verification code is requested for
// an already verified account.
var ErrAlreadyVerified = errors.New("email already verified", errors.CategoryValidation).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when no user exists for the given email.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrAccountDisabled is returned when an administratively disabled account
// attempts to authenticate.
var ErrAccountDisabled = errors.New("account disabled", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for structurally valid but expired tokens.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or verify.
var ErrTokenMalformed = errors.New("authentication token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing is attempted on an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the bcrypt mismatch error, surfaced to
// callers as ErrInvalidCredentials
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation recognizes a storage-layer unique constraint failure.
// The pre-insert existence checks are not race free, so the driver error
// is the authoritative conflict signal.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// HTTPStatus extracts the HTTP status for an error, defaulting to 500 for
// anything that is not one of our rich errors.
func HTTPStatus(err error) int {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code > 0 {
		return int(richErr.Code)
	}
	return 500
}
