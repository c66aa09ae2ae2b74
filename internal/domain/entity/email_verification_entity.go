package entity

import "time"

// EmailVerification holds the single numeric verification code of a user.
// The code is usable only while Active is true, VerifiedAt is nil and the
// expiry window has not elapsed.
type EmailVerification struct {
	ID         string
	UserID     string
	Code       int
	Active     bool
	CreatedAt  time.Time
	VerifiedAt *time.Time

	User *User
}

// Expired reports whether the code has reached the expiry window at now.
func (v *EmailVerification) Expired(now time.Time, window time.Duration) bool {
	return !now.Before(v.CreatedAt.Add(window))
}

// Verified reports whether the owning email address has been confirmed.
func (v *EmailVerification) Verified() bool {
	return v.VerifiedAt != nil
}
