package domain

import "errors"

var (
	ErrInvalidTitle   = errors.New("invalid_title")
	ErrInvalidBody    = errors.New("invalid_body")
	ErrInvalidSlug    = errors.New("invalid_slug")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrInvalidAuthor  = errors.New("invalid_author")
	ErrInvalidID      = errors.New("invalid_id")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("post_not_found")
	ErrAuthorNotFound = errors.New("author_not_found")
)
