package user

import "time"

// User is an account holder. PasswordHash never leaves the repository layer.
type User struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullname"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
