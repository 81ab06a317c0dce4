package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account is a registered author.
type Account struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Email               string       `gorm:"size:254;not null;uniqueIndex:ux_accounts_email" json:"email"`
	PasswordHash        string       `gorm:"column:password_hash;type:text;not null" json:"-"`
	FirstName           string       `gorm:"size:30;not null;default:''" json:"first_name"`
	LastName            string       `gorm:"size:30;not null;default:''" json:"last_name"`
	IsActive            bool         `gorm:"not null;default:true" json:"is_active"`
	IsStaff             bool         `gorm:"not null;default:false" json:"is_staff"`
	DateJoined          time.Time    `gorm:"not null" json:"date_joined"`
	LastPasswordChanged *time.Time   `gorm:"column:last_password_changed" json:"-"`
	UpdatedAt           time.Time    `gorm:"not null" json:"-"`
}

func (Account) TableName() string { return "accounts" }

// FullName joins first and last name the way the billing provider expects it.
func (a Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}
