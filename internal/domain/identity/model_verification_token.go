package identity

import "time"

type VerificationToken struct {
	ID         uint     `gorm:"primaryKey"`
	IdentityID string   `gorm:"type:uuid;index"`
	Identity   Identity `gorm:"constraint:OnDelete:CASCADE"`
	Token      string   `gorm:"uniqueIndex"`
	Type       string   `gorm:"index"`
	ExpiresAt  time.Time
	CreatedAt  time.Time
}
