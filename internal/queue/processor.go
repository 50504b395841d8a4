package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/frahmantamala/medical-filemanager/internal/core/metrics"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
	"github.com/frahmantamala/medical-filemanager/internal/storage"
	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
)

const (
	thumbnailSize    = 256
	thumbnailQuality = 80
	// maxExtractedText caps what is stored in extracted_text.
	maxExtractedText = 1 << 20
	// maxSourceBytes caps what a worker reads from a blob into memory.
	maxSourceBytes = 200 << 20
)

// FileProcessor is the medicalfile service surface the worker drives.
type FileProcessor interface {
	Get(ctx context.Context, id int64) (*medicalfile.MedicalFile, error)
	MarkProcessing(ctx context.Context, id int64) error
	CompleteExtraction(ctx context.Context, id int64, text string) error
	AttachThumbnail(ctx context.Context, id int64, path string) error
	FailProcessing(ctx context.Context, id int64, reason string) error
}

// Processor is plugged into the asynq worker loop. It never touches the
// original blob beyond reading it.
type Processor struct {
	files  FileProcessor
	blob   storage.Blob
	logger *slog.Logger
}

func NewProcessor(files FileProcessor, blob storage.Blob, logger *slog.Logger) *Processor {
	return &Processor{files: files, blob: blob, logger: logger}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskExtractText, p.HandleExtractText)
	mux.HandleFunc(TaskThumbnail, p.HandleThumbnail)
	return mux
}

func (p *Processor) HandleExtractText(ctx context.Context, task *asynq.Task) error {
	return p.run(ctx, task, func(ctx context.Context, payload FilePayload, data []byte) error {
		text, err := ExtractText(data)
		if err != nil {
			return err
		}
		if err := p.files.CompleteExtraction(ctx, payload.FileID, text); err != nil {
			return fmt.Errorf("store extracted text: %w", err)
		}
		p.logger.Info("text extracted", "file_id", payload.FileID, "bytes", len(text))
		return nil
	})
}

func (p *Processor) HandleThumbnail(ctx context.Context, task *asynq.Task) error {
	return p.run(ctx, task, func(ctx context.Context, payload FilePayload, data []byte) error {
		thumb, err := Thumbnail(data)
		if err != nil {
			return err
		}
		obj, err := p.blob.Upload(ctx, thumb, storage.ThumbnailName(payload.Name), "image/jpeg")
		if err != nil {
			return fmt.Errorf("upload thumbnail: %w", err)
		}
		if err := p.files.AttachThumbnail(ctx, payload.FileID, obj.Path); err != nil {
			// the record is gone or unwritable; do not leave the preview behind
			_ = p.blob.Delete(context.WithoutCancel(ctx), obj.Path)
			return fmt.Errorf("store thumbnail path: %w", err)
		}
		p.logger.Info("thumbnail created", "file_id", payload.FileID, "path", obj.Path)
		return nil
	})
}

// run loads the blob of the task's file and hands it to work, keeping the
// processing status in step: processing while running, failed with the reason
// on error.
func (p *Processor) run(ctx context.Context, task *asynq.Task, work func(context.Context, FilePayload, []byte) error) error {
	payload, err := decodePayload(task)
	if err != nil {
		metrics.BackgroundJobsTotal.WithLabelValues(task.Type(), "invalid").Inc()
		return err
	}

	if _, err := p.files.Get(ctx, payload.FileID); err != nil {
		if errors.Is(err, medicalfile.ErrFileNotFound) {
			p.logger.Info("file deleted before processing, dropping task", "task", task.Type(), "file_id", payload.FileID)
			metrics.BackgroundJobsTotal.WithLabelValues(task.Type(), "skipped").Inc()
			return nil
		}
		return err
	}

	failure := func(err error) error {
		p.logger.Error("background task failed", "task", task.Type(), "file_id", payload.FileID, "error", err)
		if markErr := p.files.FailProcessing(ctx, payload.FileID, err.Error()); markErr != nil {
			p.logger.Error("failed to record processing failure", "file_id", payload.FileID, "error", markErr)
		}
		metrics.BackgroundJobsTotal.WithLabelValues(task.Type(), "failed").Inc()
		return err
	}

	if err := p.files.MarkProcessing(ctx, payload.FileID); err != nil {
		return failure(err)
	}

	data, err := p.read(ctx, payload.StoragePath)
	if err != nil {
		return failure(err)
	}

	if err := work(ctx, payload, data); err != nil {
		return failure(err)
	}

	metrics.BackgroundJobsTotal.WithLabelValues(task.Type(), "completed").Inc()
	return nil
}

func (p *Processor) read(ctx context.Context, path string) ([]byte, error) {
	rc, err := p.blob.Open(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("blob %s missing: %w", path, asynq.SkipRetry)
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("blob %s exceeds %d bytes: %w", path, maxSourceBytes, asynq.SkipRetry)
	}
	return data, nil
}

// ExtractText reads PDF bytes and returns plain text using ledongthuc/pdf.
// The result is valid UTF-8 without NUL bytes and at most maxExtractedText
// bytes long.
func ExtractText(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %v: %w", err, asynq.SkipRetry)
	}

	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total && builder.Len() < maxExtractedText; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %v: %w", page, err, asynq.SkipRetry)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return cleanText(builder.String()), nil
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	if len(text) > maxExtractedText {
		text = text[:maxExtractedText]
		for len(text) > 0 && !utf8.ValidString(text) {
			text = text[:len(text)-1]
		}
	}
	return strings.ToValidUTF8(strings.TrimSpace(text), "")
}

// Thumbnail decodes an image, fits it into a thumbnailSize square keeping the
// aspect ratio and encodes it as JPEG.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %v: %w", err, asynq.SkipRetry)
	}

	thumb := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
