package service

import "errors"

// Session outcomes checked with errors.Is. InvalidCredentials deliberately
// covers both unknown identifier and wrong secret so callers cannot
// enumerate usernames; PrincipalNotFound maps to the same rejection as
// Unauthenticated at the HTTP boundary.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrPrincipalNotFound  = errors.New("principal no longer exists")
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("username already taken")
	ErrMissingToken       = errors.New("refresh token is required")
	ErrTokenNotFound      = errors.New("refresh token not found")
)
