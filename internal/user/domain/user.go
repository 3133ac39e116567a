package domain

import "time"

// User is the identity record. Username is the primary key and never
// changes after registration. PasswordHash stays inside the credential
// store; everything handed to callers goes through Public.
type User struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	JoinedAt     time.Time
	LastLoginAt  time.Time
}

// Public is the projection of a user that is safe to return to any caller.
type Public struct {
	Username    string
	FirstName   string
	LastName    string
	Phone       string
	JoinedAt    time.Time
	LastLoginAt time.Time
}

func (u User) Public() Public {
	return Public{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinedAt:    u.JoinedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
