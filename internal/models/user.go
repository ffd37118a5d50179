package models

import "time"

// User is the auth platform's representation of an authenticated principal.
// This layer never creates or mutates users.
type User struct {
	ID    string `bson:"_id,omitempty" json:"id"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
	Role  string `bson:"role,omitempty" json:"role,omitempty"`
}

// Session mirrors the platform's current session. A nil *Session means
// nobody is signed in.
type Session struct {
	User        *User      `bson:"user" json:"user"`
	AccessToken string     `bson:"access_token,omitempty" json:"access_token,omitempty"`
	ExpiresAt   *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
}
