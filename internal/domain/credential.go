package domain

import "time"

// Credential is the private login record behind a UserProfile.
type Credential struct {
	UserID       string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}
