package notifier

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/mailer"
)

// Publisher is satisfied by *helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, kind string, body any) error
}

// QueueNotifier hands email jobs to the email worker through RabbitMQ.
type QueueNotifier struct {
	pub    Publisher
	logger logrus.FieldLogger
}

func NewQueueNotifier(pub Publisher, logger logrus.FieldLogger) *QueueNotifier {
	return &QueueNotifier{pub: pub, logger: logger}
}

func (n *QueueNotifier) Send(ctx context.Context, job mailer.EmailJob) error {
	if job.To == "" {
		return errors.New("notifier: empty recipient")
	}
	helpers.EnsureRecipientAndEmail(&job)
	if job.Subject == "" {
		job.Subject = helpers.SubjectFor(job.Template)
	}
	if err := n.pub.PublishJSON(ctx, job.Template, job); err != nil {
		return err
	}
	n.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Debug("email job queued")
	return nil
}

// LogNotifier only logs the job. Used when mail sending is disabled.
type LogNotifier struct {
	logger logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, job mailer.EmailJob) error {
	n.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sending disabled, job dropped")
	return nil
}
