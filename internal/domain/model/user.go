package model

import (
	"fmt"
	"time"

	"telegram-video-access/internal/domain"
)

// User is a Telegram user. Privileged (corporate) users bypass access windows.
type User struct {
	ID              int64 // Telegram user id
	CreatedAt       time.Time
	IsPrivileged    bool
	PrivilegedSince *time.Time
}

func NewUser(id int64, now time.Time) (*User, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{ID: id, CreatedAt: now}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == 0 }

// Video is a catalog item. FileID is the Telegram file id; empty means not for sale.
type Video struct {
	ID     int
	Title  string
	FileID string
}

func (v *Video) ForSale() bool { return v != nil && v.FileID != "" }

// DefaultVideoTitle is the title given to seeded lessons.
func DefaultVideoTitle(id int) string { return fmt.Sprintf("Урок %d", id) }
