// Package domain holds the persisted models and the pure rules of a tasting session.
package domain

import "time"

// User is an account that can host, join and rate.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex:idx_username;not null"`
	Password  string    `gorm:"type:text;not null"` // bcrypt hash
	Email     string    `gorm:"type:varchar(191)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// UserView is the public shape of a user: {id, username}.
type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (u User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username}
}

// Principal is the authenticated caller attached to a request or a socket.
type Principal struct {
	UserID   uint
	Username string
}
