package models

import "time"

// User represents a registered account. The password hash never leaves the
// server: it is excluded from JSON and from every public view.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the directory view of a user.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Public strips a user down to its directory fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}
