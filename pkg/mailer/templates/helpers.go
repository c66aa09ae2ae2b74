package templates

import (
	"time"
)

// Brand carries the per-deployment values every email shows.
type Brand struct {
	AppName     string
	CompanyName string
	SupportURL  string
	ResetURL    string
}

type Option func(*EmailData)

func WithCode(code string) Option    { return func(d *EmailData) { d.Code = code } }
func WithToken(token string) Option  { return func(d *EmailData) { d.Token = token } }
func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04") + " UTC"
	}
}

// NewEmailData fills the branding fields, then applies opts.
func NewEmailData(b Brand, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:        name,
		Email:       email,
		AppName:     b.AppName,
		CompanyName: b.CompanyName,
		SupportURL:  b.SupportURL,
		ResetURL:    b.ResetURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
