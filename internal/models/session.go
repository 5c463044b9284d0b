package models

import "time"

// RevokedToken records a logged-out access token until it would have expired.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	Username  string    `gorm:"size:64;index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
