package domain

import "time"

// Counterpart is the user on the other side of a message from whoever
// the thread was queried for.
type Counterpart struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

// MessageWithCounterpart is one row of a message thread listing: the
// message itself joined to the counterpart user's display attributes.
type MessageWithCounterpart struct {
	ID          int64
	Body        string
	SentAt      time.Time
	ReadAt      *time.Time
	Counterpart Counterpart
}
