package models

import "time"

// User is a clinic staff account. Profile doubles as the access role.
type User struct {
	ID               uint      `gorm:"primaryKey"`
	Username         string    `gorm:"column:username;type:text;not null;uniqueIndex:idx_users_username"`
	Email            string    `gorm:"column:email;type:text;not null"`
	Verified         bool      `gorm:"column:verified;not null;default:false"`
	Profile          string    `gorm:"column:profile;type:text;not null;default:medico"`
	PasswordHash     string    `gorm:"column:password_hash;not null"`
	VerificationCode *string   `gorm:"column:verification_code;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HasPendingCode reports whether a verification or reset is outstanding.
func (u *User) HasPendingCode() bool {
	return u != nil && u.VerificationCode != nil && *u.VerificationCode != ""
}
