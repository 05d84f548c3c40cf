package models

import (
	"time"
)

// UserRole determines what a user is allowed to do. Admins resolve polls.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// User represents a community member with a token balance
type User struct {
	ID           int64      `db:"id"`
	Username     string     `db:"username"`
	DisplayName  string     `db:"display_name"`
	Balance      int64      `db:"balance"`
	Role         UserRole   `db:"role"`
	LastSpinDate *time.Time `db:"last_spin_date"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsAdmin checks whether the user may resolve polls
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// HasSpunOn checks whether the user already claimed the daily spin on the
// given day (UTC calendar date)
func (u *User) HasSpunOn(day time.Time) bool {
	if u.LastSpinDate == nil {
		return false
	}
	y1, m1, d1 := u.LastSpinDate.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
