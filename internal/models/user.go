package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account. The ID is an ObjectID hex string in MongoDB and a UUID
// in PostgreSQL.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"` // never serialize
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// VerifyPassword reports whether password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Profile holds the editable, non-credential user fields.
type Profile struct {
	Name string `form:"name" validate:"max=100"`
	Bio  string `form:"bio"  validate:"max=1000"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `form:"username" validate:"notblank,max=50"`
	Password string `form:"password" validate:"required,max=72"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `form:"username" validate:"notblank"`
	Password string `form:"password" validate:"required"`
}
