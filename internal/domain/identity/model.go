package identity

import (
	"time"
)

type Identity struct {
	ID           string  `gorm:"type:uuid;primaryKey"`
	Email        string  `gorm:"not null;uniqueIndex:idx_identities_email"`
	PasswordHash *string `gorm:""`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'email'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_identities_google_sub"`

	EmailConfirmedAt *time.Time `gorm:"column:email_confirmed_at"`

	LastSignInAt *time.Time `gorm:"column:last_sign_in_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i Identity) EmailConfirmed() bool {
	return i.EmailConfirmedAt != nil
}
