package tasks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"net/url"
	"path"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"andesgo/intake/internal/config"
	"andesgo/intake/internal/storage"
)

// TaskType defines the type of a background task.
const (
	TypeAttachmentArchive = "attachment:archive"
)

const queueAttachments = "attachments"

// --- Task Client (Enqueuing tasks) ---

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	cfg     *config.Config
	archive storage.IS3Storage
}

func NewTaskProcessor(cfg *config.Config, archive storage.IS3Storage) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, archive: archive}
}

// SetupServer configures the asynq server and its handlers. The caller
// starts it with srv.Start(mux) and stops it with srv.Shutdown().
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				queueAttachments: 3,
				"default":        1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Error: %v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAttachmentArchive, processor.HandleAttachmentArchiveTask)
	log.Println("Registered attachment archive task handler.")
	return srv, mux
}

// --- Task Handlers ---

// AttachmentArchivePayload carries one package photo of an accepted request.
type AttachmentArchivePayload struct {
	RequestID   string `json:"request_id"`
	ItemNumber  int    `json:"item_number"`
	ItemName    string `json:"item_name"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Data        string `json:"data"` // base64, without data URL prefix
}

// NewAttachmentArchiveTask builds the task for payload.
func NewAttachmentArchiveTask(payload AttachmentArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachment payload: %w", err)
	}
	return asynq.NewTask(TypeAttachmentArchive, data, asynq.Queue(queueAttachments), asynq.MaxRetry(5)), nil
}

// ArchiveKey is the object key of a package photo: requests/<id>/item-<n><ext>.
func ArchiveKey(requestID string, itemNumber int, contentType string) string {
	ext := ".jpg"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "jpeg" {
		ext = "." + sub
	}
	return path.Join("requests", requestID, fmt.Sprintf("item-%02d%s", itemNumber, ext))
}

// HandleAttachmentArchiveTask stores a package photo in the archive bucket,
// shrinking it to ImageMaxDimension first when it is larger. Metadata values
// are query-escaped since S3 only carries ASCII there.
func (p *TaskProcessor) HandleAttachmentArchiveTask(ctx context.Context, t *asynq.Task) error {
	var payload AttachmentArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal attachment payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RequestID == "" {
		return fmt.Errorf("attachment payload without request id: %w", asynq.SkipRetry)
	}

	imgData, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		return fmt.Errorf("invalid attachment data for %s item %d: %v: %w", payload.RequestID, payload.ItemNumber, err, asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Attachment for %s item %d is not a decodable image: %v", payload.RequestID, payload.ItemNumber, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	contentType := "image/" + format
	maxDim := uint(p.cfg.ImageMaxDimension)
	bounds := img.Bounds()
	if maxDim > 0 && (uint(bounds.Dx()) > maxDim || uint(bounds.Dy()) > maxDim) {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		log.Printf("Resized attachment for %s item %d from %dx%d to %dx%d",
			payload.RequestID, payload.ItemNumber, bounds.Dx(), bounds.Dy(), resized.Bounds().Dx(), resized.Bounds().Dy())
		imgData = buf.Bytes()
		contentType = "image/jpeg"
	}

	key := ArchiveKey(payload.RequestID, payload.ItemNumber, contentType)
	metadata := map[string]string{
		"request-id": payload.RequestID,
		"item-name":  url.QueryEscape(payload.ItemName),
	}
	if payload.Filename != "" {
		metadata["original-filename"] = url.QueryEscape(payload.Filename)
	}
	if err := p.archive.PutObject(ctx, key, contentType, imgData, metadata); err != nil {
		return fmt.Errorf("failed to archive attachment: %w", err)
	}
	return nil
}
