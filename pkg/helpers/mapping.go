package helpers

import (
	"fmt"

	"github.com/oksasatya/parkingtime-identity/pkg/mailer"
	mailtpl "github.com/oksasatya/parkingtime-identity/pkg/mailer/templates"
)

// SubjectFor returns the fallback subject for a template name.
func SubjectFor(template string) string {
	switch template {
	case mailtpl.ResetPassword:
		return "Reset your password"
	case mailtpl.VerificationCode:
		return "Verify your email address"
	default:
		return "Notification"
	}
}

// EnsureRecipientAndEmail makes sure the template data names the recipient.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || v == nil || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
}
