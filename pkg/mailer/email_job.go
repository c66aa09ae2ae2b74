package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names a pair of embedded templates (see package templates) rendered
// by the email worker with Data; Subject/Text/HTML are used verbatim when set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "reset_password" or "verification_code"
	Data     map[string]any `json:"data,omitempty"`
}

// Rendered reports whether the job already carries a body.
func (j EmailJob) Rendered() bool {
	return j.Text != "" || j.HTML != ""
}
