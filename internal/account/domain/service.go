package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ConfirmPasswordResetRequest struct {
	UID         string `json:"uid"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Account, error)
	// Authenticate returns ErrInvalidCredentials for unknown, inactive or
	// mismatched accounts alike.
	Authenticate(ctx context.Context, email, password string) (*Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, req ConfirmPasswordResetRequest) error
	GetByID(ctx context.Context, id snowflake.ID) (*Account, error)
	List(ctx context.Context) ([]Account, error)
}
