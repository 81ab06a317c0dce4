package domain

import "errors"

var (
	ErrInvalidEmail          = errors.New("invalid_email")
	ErrInvalidPassword       = errors.New("invalid_password")
	ErrInvalidName           = errors.New("invalid_name")
	ErrEmailExists           = errors.New("email_already_registered")
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid_or_expired_token")
	ErrNotFound              = errors.New("account_not_found")
)
