package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/mailer"
	mailtpl "github.com/oksasatya/parkingtime-identity/pkg/mailer/templates"
)

type deliverer interface {
	Deliver(ctx context.Context, job mailer.EmailJob) error
}

// outcome tells the consume loop what to do with a delivery.
type outcome int

const (
	ack outcome = iota
	drop
	retry
)

// decode parses and renders a queued job. Jobs that can never be sent are
// reported as errors.
func decode(body []byte) (mailer.EmailJob, error) {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("bad message: %w", err)
	}
	helpers.EnsureRecipientAndEmail(&job)
	if job.To == "" {
		return job, errors.New("message has no recipient")
	}

	if job.Template != "" && !job.Rendered() {
		if !mailtpl.Known(job.Template) {
			return job, fmt.Errorf("unknown template %q", job.Template)
		}
		subject, text, html, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return job, fmt.Errorf("render %s: %w", job.Template, err)
		}
		job.Subject, job.Text, job.HTML = subject, text, html
	}
	if job.Subject == "" {
		job.Subject = helpers.SubjectFor(job.Template)
	}
	if !job.Rendered() {
		return job, errors.New("message has no body")
	}
	return job, nil
}

// handle decodes body and hands it to d. Broken messages are dropped;
// delivery failures are retried.
func handle(ctx context.Context, d deliverer, body []byte) (outcome, error) {
	job, err := decode(body)
	if err != nil {
		return drop, err
	}
	if err := d.Deliver(ctx, job); err != nil {
		return retry, fmt.Errorf("send to %s: %w", job.To, err)
	}
	return ack, nil
}
