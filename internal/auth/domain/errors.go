package domain

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidToken  = errors.New("token_not_valid")
	ErrMissingSecret = errors.New("auth_jwt_secret_required")
)
