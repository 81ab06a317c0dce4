package domain

import "errors"

var (
	ErrAlreadyExists = errors.New("billing_customer_already_exists")
	ErrNotFound      = errors.New("billing_customer_not_found")
)
