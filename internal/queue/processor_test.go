package queue_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
	"github.com/frahmantamala/medical-filemanager/internal/queue"
	"github.com/frahmantamala/medical-filemanager/internal/storage"
	"github.com/hibiken/asynq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeFiles struct {
	files     map[int64]*medicalfile.MedicalFile
	statuses  []string
	failure   string
	text      *string
	thumbnail string
}

func newFakeFiles(ids ...int64) *fakeFiles {
	f := &fakeFiles{files: map[int64]*medicalfile.MedicalFile{}}
	for _, id := range ids {
		f.files[id] = &medicalfile.MedicalFile{ID: id, ProcessingStatus: medicalfile.StatusPending}
	}
	return f
}

func (f *fakeFiles) Get(ctx context.Context, id int64) (*medicalfile.MedicalFile, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, medicalfile.ErrFileNotFound
	}
	return file, nil
}

func (f *fakeFiles) MarkProcessing(ctx context.Context, id int64) error {
	f.statuses = append(f.statuses, medicalfile.StatusProcessing)
	return nil
}

func (f *fakeFiles) CompleteExtraction(ctx context.Context, id int64, text string) error {
	f.statuses = append(f.statuses, medicalfile.StatusCompleted)
	f.text = &text
	return nil
}

func (f *fakeFiles) AttachThumbnail(ctx context.Context, id int64, path string) error {
	f.statuses = append(f.statuses, medicalfile.StatusCompleted)
	f.thumbnail = path
	return nil
}

func (f *fakeFiles) FailProcessing(ctx context.Context, id int64, reason string) error {
	f.statuses = append(f.statuses, medicalfile.StatusFailed)
	f.failure = reason
	return nil
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func task(taskType string, payload queue.FilePayload) *asynq.Task {
	data, err := json.Marshal(payload)
	Expect(err).NotTo(HaveOccurred())
	return asynq.NewTask(taskType, data)
}

var _ = Describe("Processor", func() {
	var (
		ctx       context.Context
		blob      storage.Blob
		files     *fakeFiles
		processor *queue.Processor
	)

	BeforeEach(func() {
		ctx = context.Background()
		local, err := storage.NewLocal(GinkgoT().TempDir(), storage.NewSigner("queue-test-secret-0123456789abcdef", "http://localhost:8080"), time.Hour)
		Expect(err).NotTo(HaveOccurred())
		blob = local
		files = newFakeFiles(1)
		processor = queue.NewProcessor(files, blob, quietLogger())
	})

	Describe("thumbnails", func() {
		It("stores a scaled jpeg preview next to the original", func() {
			original := pngBytes(1024, 512)
			obj, err := blob.Upload(ctx, original, "Chest Scan.png", "image/png")
			Expect(err).NotTo(HaveOccurred())

			err = processor.HandleThumbnail(ctx, task(queue.TaskThumbnail, queue.FilePayload{
				FileID:      1,
				StoragePath: obj.Path,
				Name:        "Chest Scan.png",
			}))
			Expect(err).NotTo(HaveOccurred())

			Expect(files.statuses).To(Equal([]string{medicalfile.StatusProcessing, medicalfile.StatusCompleted}))
			Expect(files.thumbnail).To(HaveSuffix("_thumb_Chest_Scan.jpg"))
			Expect(files.thumbnail).NotTo(Equal(obj.Path))

			rc, err := blob.Open(ctx, files.thumbnail)
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()
			thumb, err := imaging.Decode(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(thumb.Bounds().Dx()).To(Equal(256))
			Expect(thumb.Bounds().Dy()).To(Equal(128))

			rc2, err := blob.Open(ctx, obj.Path)
			Expect(err).NotTo(HaveOccurred())
			defer rc2.Close()
			kept, err := io.ReadAll(rc2)
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(Equal(original))
		})

		It("marks the file failed when the image cannot be decoded", func() {
			obj, err := blob.Upload(ctx, []byte("not an image"), "broken.png", "image/png")
			Expect(err).NotTo(HaveOccurred())

			err = processor.HandleThumbnail(ctx, task(queue.TaskThumbnail, queue.FilePayload{FileID: 1, StoragePath: obj.Path, Name: "broken.png"}))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())
			Expect(files.statuses).To(Equal([]string{medicalfile.StatusProcessing, medicalfile.StatusFailed}))
			Expect(files.failure).To(ContainSubstring("decode image"))
		})
	})

	Describe("text extraction", func() {
		It("marks the file failed for content that is not a pdf", func() {
			obj, err := blob.Upload(ctx, []byte("plain text pretending"), "report.pdf", "application/pdf")
			Expect(err).NotTo(HaveOccurred())

			err = processor.HandleExtractText(ctx, task(queue.TaskExtractText, queue.FilePayload{FileID: 1, StoragePath: obj.Path, Name: "report.pdf"}))
			Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())
			Expect(files.statuses).To(Equal([]string{medicalfile.StatusProcessing, medicalfile.StatusFailed}))
			Expect(files.text).To(BeNil())
		})
	})

	It("drops tasks for files deleted in the meantime", func() {
		err := processor.HandleExtractText(ctx, task(queue.TaskExtractText, queue.FilePayload{FileID: 99, StoragePath: "files/x.pdf"}))
		Expect(err).NotTo(HaveOccurred())
		Expect(files.statuses).To(BeEmpty())
	})

	It("does not retry when the blob is gone", func() {
		err := processor.HandleThumbnail(ctx, task(queue.TaskThumbnail, queue.FilePayload{FileID: 1, StoragePath: "files/2025/01/01/missing.png", Name: "missing.png"}))
		Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())
		Expect(files.statuses).To(Equal([]string{medicalfile.StatusProcessing, medicalfile.StatusFailed}))
	})

	It("rejects malformed payloads without touching files", func() {
		err := processor.HandleThumbnail(ctx, asynq.NewTask(queue.TaskThumbnail, []byte("{")))
		Expect(errors.Is(err, asynq.SkipRetry)).To(BeTrue())
		Expect(files.statuses).To(BeEmpty())
	})

	It("registers both task types", func() {
		Expect(processor.Handler()).NotTo(BeNil())
	})
})
