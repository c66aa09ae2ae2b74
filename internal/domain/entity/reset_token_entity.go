package entity

import "time"

// ResetMethodEmail is the only supported delivery method for reset tokens.
const ResetMethodEmail = "email"

// ResetToken is one outstanding password-reset attempt.
// A token is active while it is unused and younger than the expiry window.
type ResetToken struct {
	ID         string
	UserID     string
	Token      string
	Method     string
	Used       bool
	ConsumedAt *time.Time
	CreatedAt  time.Time

	// User is populated by the issuing flow for email composition.
	User *User
}

// Expired reports whether the token has reached the expiry window at now.
func (t *ResetToken) Expired(now time.Time, window time.Duration) bool {
	return !now.Before(t.CreatedAt.Add(window))
}

// Active reports whether the token still blocks a new issuance.
func (t *ResetToken) Active(now time.Time, window time.Duration) bool {
	return !t.Used && !t.Expired(now, window)
}

// ResetHistory is the immutable audit row written after a completed reset.
type ResetHistory struct {
	ID        string
	UserID    string
	Method    string
	CreatedAt time.Time
}
