package models

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type UserProfile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type User struct {
	ID           int
	Name         string
	Email        string
	PasswordHash string `json:"-"`
	Role         string
	IsVerified   bool
	OTP          *string    `json:"-"`
	OTPExpiry    *time.Time `json:"-"`
}

func (u User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
