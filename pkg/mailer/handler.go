package mailer

import (
	"context"
	"fmt"

	"github.com/paradisefm/facilities-api/pkg/jobs"
)

// QueueHandler adapts a Mailer into a jobs.Handler. The job payload must be
// a Message.
func QueueHandler(m Mailer) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(Message)
		if !ok {
			return fmt.Errorf("job %s carries %T, expected mailer.Message", job.ID, job.Payload)
		}
		return m.Send(msg)
	}
}
