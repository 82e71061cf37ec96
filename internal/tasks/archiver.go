package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"andesgo/intake/internal/models"
	"andesgo/intake/internal/validation"
)

// taskEnqueuer is the subset of *asynq.Client used by the archiver.
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AttachmentArchiver enqueues one archive task per package photo of an
// accepted mailbox request. Other kinds carry no attachments.
type AttachmentArchiver struct {
	client taskEnqueuer
}

func NewAttachmentArchiver(client *asynq.Client) *AttachmentArchiver {
	return &AttachmentArchiver{client: client}
}

// OnAccepted enqueues every photo and returns the joined enqueue errors.
func (a *AttachmentArchiver) OnAccepted(ctx context.Context, record *models.RequestRecord) error {
	if record.MailboxRequest == nil {
		return nil
	}

	var errs []error
	for i, item := range record.MailboxRequest.Items {
		if item.Image == nil {
			continue
		}
		contentType, data := validation.SplitDataURL(item.Image.Data)
		if item.Image.ContentType != "" {
			contentType = item.Image.ContentType
		}
		task, err := NewAttachmentArchiveTask(AttachmentArchivePayload{
			RequestID:   record.ID,
			ItemNumber:  i + 1,
			ItemName:    item.Name,
			Filename:    item.Image.Filename,
			ContentType: contentType,
			Data:        data,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		info, err := a.client.EnqueueContext(ctx, task)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to enqueue attachment %d of %s: %w", i+1, record.ID, err))
			continue
		}
		log.Printf("Enqueued attachment archive task %s for %s item %d", info.ID, record.ID, i+1)
	}
	return errors.Join(errs...)
}
