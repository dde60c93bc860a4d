package models

import "time"

// User represents an account record in the credential store.
type User struct {
	Username     string     `json:"-"` // Key of the record in the store
	PasswordHash string     `json:"password_hash"`
	Email        string     `json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
	IsVerified   bool       `json:"is_verified"`
	UserDir      string     `json:"user_dir"`
}

// UserInfo is the public view of a user. It never carries the password hash.
type UserInfo struct {
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin"`
	IsVerified bool       `json:"isVerified"`
	UserDir    string     `json:"userDir"`
}

// Info strips the sensitive fields from a user record.
func (u User) Info() UserInfo {
	return UserInfo{
		Username:   u.Username,
		Email:      u.Email,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
		IsVerified: u.IsVerified,
		UserDir:    u.UserDir,
	}
}
