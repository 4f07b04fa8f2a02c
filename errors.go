package librarian

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// Text codes surfaced in error payloads so clients can branch without
// parsing messages.
const (
	TextCodeMissingCredentials  = "auth_missing_credentials"
	TextCodeInvalidCredentials  = "auth_invalid_credentials"
	TextCodeEmailTaken          = "auth_email_taken"
	TextCodeTokenExpired        = "auth_token_expired"
	TextCodeTokenMalformed      = "auth_token_malformed"
	TextCodeRefreshTokenMissing = "auth_refresh_token_missing"
	TextCodeRefreshTokenInvalid = "auth_refresh_token_invalid"
	TextCodeRefreshTokenExpired = "auth_refresh_token_expired"
	TextCodeInsufficientRole    = "auth_insufficient_role"
	TextCodeRecordNotFound      = "record_not_found"
)

// ErrMissingCredentials is returned when register or login payloads omit
// the email or password.
var ErrMissingCredentials = goerrors.New("email and password are required", goerrors.CategoryValidation).
	WithTextCode(TextCodeMissingCredentials).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials covers both an unknown email and a password
// mismatch. The message is deliberately generic so callers cannot tell
// which half of the pair was wrong.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailTaken is returned when registration hits the email uniqueness
// constraint.
var ErrEmailTaken = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken)

// ErrTokenExpired is returned for access tokens past their expiry claim.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for access tokens that fail signature or
// structural validation.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshTokenMissing is returned when the refresh payload has no token.
var ErrRefreshTokenMissing = goerrors.New("refresh token is required", goerrors.CategoryValidation).
	WithTextCode(TextCodeRefreshTokenMissing).
	WithCode(goerrors.CodeBadRequest)

// ErrRefreshTokenInvalid is returned when the presented refresh token is
// not in the store or fails cryptographic verification.
var ErrRefreshTokenInvalid = goerrors.New("refresh token is invalid", goerrors.CategoryAuthz).
	WithTextCode(TextCodeRefreshTokenInvalid).
	WithCode(goerrors.CodeForbidden)

// ErrRefreshTokenExpired is returned when the stored expiry timestamp has
// passed. Detection deletes the row as a side effect.
var ErrRefreshTokenExpired = goerrors.New("refresh token is expired", goerrors.CategoryAuthz).
	WithTextCode(TextCodeRefreshTokenExpired).
	WithCode(goerrors.CodeForbidden)

// ErrInsufficientRole is returned by the admin guard for non-admin users.
var ErrInsufficientRole = goerrors.New("insufficient permissions", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(goerrors.CodeForbidden)

// ErrorStatus maps a rich error category to an HTTP status code. The
// persistence layer reports missing rows in its own category, so that is
// checked before the generic categories.
func ErrorStatus(err *goerrors.Error) int {
	if repository.IsRecordNotFound(err) {
		return router.StatusNotFound
	}

	switch err.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	default:
		return router.StatusInternalServerError
	}
}

// WriteError renders err as the single JSON error shape used across the
// API. Anything that is not already a rich error becomes a generic 500.
func WriteError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred")
	}

	body := map[string]any{"error": richErr.Message}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return ctx.JSON(ErrorStatus(richErr), body)
}
