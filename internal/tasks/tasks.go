package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/harshdeep1289/marketplace-platform/internal/config"
	"github.com/harshdeep1289/marketplace-platform/internal/logger"
	"github.com/harshdeep1289/marketplace-platform/internal/services"
	"github.com/harshdeep1289/marketplace-platform/internal/storage"

	"go.uber.org/zap"
)

// TaskType defines the type of a background task.
const (
	TypeImageProcess = "image:process"
	TypeExpirySweep  = "listing:expiry:sweep"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// NewImageProcessTask builds the task enqueued after an image upload URL is
// handed out.
func NewImageProcessTask(imageID, s3Key string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{ImageID: imageID, S3Key: s3Key})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue("images"), asynq.MaxRetry(5)), nil
}

// NewExpirySweepTask builds the periodic sweep task. The handler re-enqueues
// it, so only one initial enqueue is needed at startup.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TypeExpirySweep, nil, asynq.Queue("default"))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	storageService storage.IS3Storage
	listingService services.IListingService
	imageService   services.IImageService
	taskClient     *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	storageService storage.IS3Storage,
	listingService services.IListingService,
	imageService services.IImageService,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		storageService: storageService,
		listingService: listingService,
		imageService:   imageService,
		taskClient:     taskClient,
	}
}

// SetupServer configures and returns an Asynq server instance, or nil when
// the process runs in API-only mode.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isWorker bool) *asynq.Server {
	if !isWorker {
		logger.Info("running in API mode, no task server started")
		return nil
	}

	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"images":   5,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	mux.HandleFunc(TypeExpirySweep, processor.HandleExpirySweepTask)

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Fatal("could not run task server", zap.Error(err))
		}
	}()

	return srv
}

// --- Task Handlers ---

// ImageTaskPayload identifies the uploaded object and its image record.
type ImageTaskPayload struct {
	ImageID string `json:"image_id"`
	S3Key   string `json:"s3_key"`
}

// HandleImageProcessTask normalizes a freshly uploaded image: it caps the
// original's dimensions and generates the thumbnail the image record points
// to afterwards.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("processing image",
		zap.String("image_id", payload.ImageID),
		zap.String("s3_key", payload.S3Key))

	imgData, err := p.storageService.GetObject(ctx, payload.S3Key)
	if err != nil {
		// Retryable; the client upload may still be in flight.
		return fmt.Errorf("failed to download image %s: %w", payload.S3Key, err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		return fmt.Errorf("image %s exceeds max size (%d > %d bytes): %w",
			payload.S3Key, len(imgData), maxSizeBytes, asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image %s: %w", payload.S3Key, asynq.SkipRetry)
	}
	logger.Debug("decoded image",
		zap.String("s3_key", payload.S3Key),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	// Cap the original's dimensions, overwriting it in place.
	maxDim := uint(p.cfg.ImageMaxDimension)
	if uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image %s: %w", payload.S3Key, err)
		}
		if err := p.storageService.PutObject(ctx, payload.S3Key, "image/jpeg", buf.Bytes()); err != nil {
			return fmt.Errorf("failed to upload resized image: %w", err)
		}
		img = resized
	}

	// Generate and store the thumbnail next to the original.
	thumbDim := uint(p.cfg.ThumbnailDimension)
	thumb := resize.Thumbnail(thumbDim, thumbDim, img, resize.Lanczos3)
	var thumbBuf bytes.Buffer
	if err := jpeg.Encode(&thumbBuf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return fmt.Errorf("failed to encode thumbnail for %s: %w", payload.S3Key, err)
	}

	thumbKey := thumbnailKey(payload.S3Key)
	if err := p.storageService.PutObject(ctx, thumbKey, "image/jpeg", thumbBuf.Bytes()); err != nil {
		return fmt.Errorf("failed to upload thumbnail %s: %w", thumbKey, err)
	}

	thumbURL := strings.TrimRight(p.cfg.ImageBaseURL, "/") + "/" + thumbKey
	if err := p.imageService.SetThumbnail(ctx, payload.ImageID, thumbURL); err != nil {
		return fmt.Errorf("failed to record thumbnail for image %s: %w", payload.ImageID, err)
	}

	logger.Info("image processed",
		zap.String("image_id", payload.ImageID),
		zap.String("thumbnail_key", thumbKey))
	return nil
}

// HandleExpirySweepTask flips overdue active listings to expired and
// re-enqueues itself to run again after the configured interval.
func (p *TaskProcessor) HandleExpirySweepTask(ctx context.Context, t *asynq.Task) error {
	expired, err := p.listingService.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("expiry sweep failed: %w", err)
	}
	if expired > 0 {
		logger.Info("expired overdue listings", zap.Int64("count", expired))
	}

	if _, err := p.taskClient.EnqueueContext(ctx, NewExpirySweepTask(), asynq.ProcessIn(p.cfg.ExpirySweepInterval)); err != nil {
		return fmt.Errorf("failed to re-enqueue expiry sweep: %w", err)
	}
	return nil
}

func thumbnailKey(key string) string {
	if strings.HasPrefix(key, "uploads/") {
		return "thumbs/" + strings.TrimPrefix(key, "uploads/")
	}
	return "thumbs/" + key
}
