package medicalfile

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	"github.com/frahmantamala/medical-filemanager/internal/core/common/pagination"
	"github.com/frahmantamala/medical-filemanager/internal/core/common/validation"
	medicalfileDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/medicalfile"
	"github.com/frahmantamala/medical-filemanager/internal/core/events"
	"github.com/frahmantamala/medical-filemanager/internal/core/metrics"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	"github.com/frahmantamala/medical-filemanager/internal/storage"
)

// StoreFunc writes the blob of a file that is being inserted and reports
// what was stored.
type StoreFunc func(ctx context.Context) (*storage.Object, error)

// Filter narrows a file listing. Nil fields are not applied.
type Filter struct {
	DepartmentID *int64
	Category     string
	Year         *int
	Month        *int
	Day          *int
	Search       string
}

// ProcessingUpdate changes the background processing columns of a file. Nil
// fields are left untouched.
type ProcessingUpdate struct {
	Status        string
	Error         *string
	ExtractedText *string
	ThumbnailPath *string
}

type RepositoryAPI interface {
	// Create inserts row and calls store inside the same transaction; an error
	// from store rolls the insert back.
	Create(ctx context.Context, row *medicalfileDatamodel.MedicalFile, store StoreFunc) error
	Count(ctx context.Context, filter Filter) (int64, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*MedicalFile, error)
	GetByID(ctx context.Context, id int64) (*MedicalFile, error)
	Delete(ctx context.Context, id int64) error
	UpdateProcessing(ctx context.Context, id int64, update ProcessingUpdate) error
}

type CategoryResolver interface {
	ResolveForUpload(ctx context.Context, viewer *internal.User, name string) (*category.Category, error)
}

type FolderResolver interface {
	Resolve(ctx context.Context, categoryID int64, year, month, day int) (*folder.DateFolder, error)
}

type Options struct {
	MaxFileSize int64
	PageSize    int
	URLTTL      time.Duration
	// Processing marks PDFs and images as pending background work.
	Processing bool
}

type Service struct {
	repo       RepositoryAPI
	categories CategoryResolver
	folders    FolderResolver
	blob       storage.Blob
	publisher  events.Publisher
	opts       Options
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, categories CategoryResolver, folders FolderResolver, blob storage.Blob, publisher events.Publisher, opts Options, logger *slog.Logger) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = internal.DefaultMaxFileSize
	}
	if opts.PageSize <= 0 {
		opts.PageSize = internal.DefaultPageSize
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = internal.DefaultStorageURLTTL
	}
	return &Service{
		repo:       repo,
		categories: categories,
		folders:    folders,
		blob:       blob,
		publisher:  publisher,
		opts:       opts,
		logger:     logger,
	}
}

// MaxRequestBytes bounds an upload request body: the base64 form of the
// largest allowed file plus room for the other fields.
func (s *Service) MaxRequestBytes() int64 {
	return int64(base64.StdEncoding.EncodedLen(int(s.opts.MaxFileSize))) + 1<<20
}

// Upload places a file in the date folder of its category and stores its
// content. The record and the blob are committed together or not at all.
func (s *Service) Upload(ctx context.Context, viewer *internal.User, req UploadRequest) (*MedicalFile, string, error) {
	if viewer == nil {
		return nil, "", internal.ErrAuthenticationRequired
	}
	if appErr := validation.Struct(req); appErr != nil {
		return nil, "", appErr
	}

	cat, err := s.categories.ResolveForUpload(ctx, viewer, req.Category)
	if err != nil {
		if errors.Is(err, category.ErrCategoryForbidden) {
			return nil, "", ErrUploadForbidden
		}
		return nil, "", err
	}
	if !viewer.CanSeeDepartment(cat.DepartmentID) {
		return nil, "", ErrUploadForbidden
	}

	data, err := s.decodeContent(req.FileContent)
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, "", ErrFileTooLarge
	}
	if !IsAllowedExtension(req.Filename) {
		return nil, "", ErrFileTypeNotAllowed
	}

	fileType := Classify(req.MimeType, req.Filename)

	dateFolder, err := s.folders.Resolve(ctx, cat.ID, int(req.Year), int(req.Month), int(req.Date))
	if err != nil {
		return nil, "", err
	}

	size := int64(len(data))
	if req.FileSize > 0 && int64(req.FileSize) != size {
		s.logger.Warn("declared file size differs from content",
			"filename", req.Filename,
			"declared", int64(req.FileSize),
			"actual", size,
		)
	}

	status := StatusNone
	if s.opts.Processing && (fileType == FileTypePDF || fileType == FileTypeImage) {
		status = StatusPending
	}

	row := &medicalfileDatamodel.MedicalFile{
		DateFolderID:     dateFolder.ID,
		CategoryID:       cat.ID,
		Name:             strings.TrimSpace(req.Filename),
		Description:      strings.TrimSpace(req.Description),
		FileType:         string(fileType),
		MimeType:         req.MimeType,
		Size:             size,
		StorageBackend:   s.blob.Backend(),
		ProcessingStatus: status,
		UploadedBy:       viewer.ID,
	}

	var stored *storage.Object
	store := func(ctx context.Context) (*storage.Object, error) {
		obj, err := s.blob.Upload(ctx, data, row.Name, req.MimeType)
		if err != nil {
			return nil, ErrStorageFailed.WithCause(err)
		}
		stored = obj
		return obj, nil
	}

	if err := s.repo.Create(ctx, row, store); err != nil {
		if stored != nil {
			// the blob made it but the record did not
			if delErr := s.blob.Delete(context.WithoutCancel(ctx), stored.Path); delErr != nil {
				s.logger.Error("failed to remove orphaned blob",
					"path", stored.Path,
					"error", delErr,
				)
			}
		}
		s.logger.Error("failed to upload file",
			"filename", row.Name,
			"category_id", cat.ID,
			"error", err,
		)
		return nil, "", err
	}

	metrics.UploadsTotal.WithLabelValues(string(fileType)).Inc()
	metrics.UploadBytesTotal.Add(float64(size))

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.NewFileUploadedEvent(
			row.ID, cat.ID, string(fileType), row.MimeType, row.Name, row.StoragePath, row.Size, viewer.ID,
		))
	}

	s.logger.Info("file uploaded",
		"file_id", row.ID,
		"category", cat.Name,
		"date", dateFolder.FullDate.Format("2006-01-02"),
		"size", size,
	)

	file := FromDataModel(row)
	file.CategoryName = cat.Name
	file.DepartmentID = cat.DepartmentID
	file.Year, file.Month, file.Day = dateFolder.Year, dateFolder.Month, dateFolder.Day
	return file, stored.URL, nil
}

func (s *Service) decodeContent(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "data:") {
		idx := strings.IndexByte(content, ',')
		if idx < 0 {
			return nil, ErrInvalidContent
		}
		content = content[idx+1:]
	}

	// reject early instead of decoding something far too large
	if int64(base64.StdEncoding.DecodedLen(len(content))) > s.opts.MaxFileSize+3 {
		return nil, ErrFileTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(content, "="))
		if err != nil {
			return nil, ErrInvalidContent.WithCause(err)
		}
	}
	return data, nil
}

// List returns one page of the files viewer may see, newest first.
func (s *Service) List(ctx context.Context, viewer *internal.User, req ListFilesRequest) (*FilesResponse, error) {
	if viewer == nil {
		return nil, internal.ErrAuthenticationRequired
	}

	filter, visible := s.buildFilter(viewer, req)
	if !visible {
		_, meta := pagination.Clamp(pagination.DefaultPage, s.opts.PageSize, 0)
		return &FilesResponse{Files: []FileResponse{}, Pagination: meta}, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count files", "error", err)
		return nil, err
	}

	params, meta := pagination.Clamp(pagination.ParsePage(req.Page), s.opts.PageSize, total)

	files, err := s.repo.List(ctx, filter, params.Limit(), params.Offset())
	if err != nil {
		s.logger.Error("failed to list files", "error", err)
		return nil, err
	}

	responses := make([]FileResponse, 0, len(files))
	for _, f := range files {
		responses = append(responses, s.toResponse(ctx, f, viewer))
	}

	return &FilesResponse{Files: responses, Pagination: meta}, nil
}

// buildFilter turns the query filters into a Filter. Month only applies with a
// year and day only with a month; values that are not numbers are ignored. The
// second result is false when viewer can see no files at all.
func (s *Service) buildFilter(viewer *internal.User, req ListFilesRequest) (Filter, bool) {
	var filter Filter
	if !viewer.IsStaff {
		if viewer.DepartmentID == nil {
			return filter, false
		}
		dept := *viewer.DepartmentID
		filter.DepartmentID = &dept
	}

	filter.Category = strings.TrimSpace(req.Category)
	filter.Search = strings.TrimSpace(req.Search)

	if year, ok := parseNumber(req.Year); ok {
		filter.Year = &year
		if month, ok := parseNumber(req.Month); ok {
			filter.Month = &month
			if day, ok := parseNumber(req.Date); ok {
				filter.Day = &day
			}
		}
	}
	return filter, true
}

func parseNumber(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Get loads a file without any access check.
func (s *Service) Get(ctx context.Context, id int64) (*MedicalFile, error) {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get file", "file_id", id, "error", err)
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}
	return file, nil
}

// GetVisible is Get restricted to files of the viewer's department.
func (s *Service) GetVisible(ctx context.Context, viewer *internal.User, id int64) (*MedicalFile, error) {
	if viewer == nil {
		return nil, internal.ErrAuthenticationRequired
	}
	file, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanSeeDepartment(file.DepartmentID) {
		return nil, ErrFileForbidden
	}
	return file, nil
}

func (s *Service) Detail(ctx context.Context, viewer *internal.User, id int64) (*FileResponse, error) {
	file, err := s.GetVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, file, viewer)
	resp.ExtractedText = file.ExtractedText
	resp.ProcessingStatus = file.ProcessingStatus
	return &resp, nil
}

// DownloadURL returns a freshly signed link to the file content.
func (s *Service) DownloadURL(ctx context.Context, viewer *internal.User, id int64) (string, error) {
	file, err := s.GetVisible(ctx, viewer, id)
	if err != nil {
		return "", err
	}
	link, err := s.blob.URL(ctx, file.StoragePath, s.opts.URLTTL)
	if err != nil {
		s.logger.Error("failed to sign download url", "file_id", id, "error", err)
		return "", ErrStorageFailed.WithCause(err)
	}
	return link, nil
}

// Delete removes the record first and then its blobs. A blob that cannot be
// removed is logged and left behind.
func (s *Service) Delete(ctx context.Context, viewer *internal.User, id int64) error {
	if viewer == nil {
		return internal.ErrAuthenticationRequired
	}
	file, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !file.CanDelete(viewer) {
		return ErrDeleteForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			s.logger.Error("failed to delete file", "file_id", id, "error", err)
		}
		return err
	}

	paths := []string{file.StoragePath}
	if file.ThumbnailPath != nil {
		paths = append(paths, *file.ThumbnailPath)
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.blob.Delete(ctx, path); err != nil {
			s.logger.Error("file record deleted but blob removal failed",
				"file_id", id,
				"path", path,
				"error", err,
			)
		}
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.NewFileDeletedEvent(id, file.StoragePath, viewer.ID))
	}

	s.logger.Info("file deleted", "file_id", id, "deleted_by", viewer.ID)
	return nil
}

func (s *Service) MarkProcessing(ctx context.Context, id int64) error {
	return s.repo.UpdateProcessing(ctx, id, ProcessingUpdate{Status: StatusProcessing})
}

func (s *Service) CompleteExtraction(ctx context.Context, id int64, text string) error {
	return s.repo.UpdateProcessing(ctx, id, ProcessingUpdate{Status: StatusCompleted, ExtractedText: &text})
}

func (s *Service) AttachThumbnail(ctx context.Context, id int64, path string) error {
	return s.repo.UpdateProcessing(ctx, id, ProcessingUpdate{Status: StatusCompleted, ThumbnailPath: &path})
}

func (s *Service) FailProcessing(ctx context.Context, id int64, reason string) error {
	return s.repo.UpdateProcessing(ctx, id, ProcessingUpdate{Status: StatusFailed, Error: &reason})
}

func (s *Service) toResponse(ctx context.Context, f *MedicalFile, viewer *internal.User) FileResponse {
	resp := FileResponse{
		ID:            f.ID,
		Filename:      f.Name,
		FileSize:      f.Size,
		FormattedSize: FormatSize(f.Size),
		MimeType:      f.FileType.DisplayName(),
		FileType:      string(f.FileType),
		CreatedAt:     f.UploadedAt.UTC().Format(time.RFC3339),
		FormattedDate: f.UploadedAt.Format("02/01/2006 03:04 PM"),
		Description:   f.Description,
		UploadedBy:    f.UploaderDisplayName(),
		CanDelete:     f.CanDelete(viewer),
		Category:      f.CategoryName,
		Year:          f.Year,
		Month:         f.Month,
		Day:           f.Day,
	}

	if f.StoragePath != "" {
		link, err := s.blob.URL(ctx, f.StoragePath, s.opts.URLTTL)
		if err != nil {
			s.logger.Warn("failed to sign file url", "file_id", f.ID, "error", err)
		}
		resp.FilePath = link
	}
	if f.ThumbnailPath != nil && *f.ThumbnailPath != "" {
		link, err := s.blob.URL(ctx, *f.ThumbnailPath, s.opts.URLTTL)
		if err != nil {
			s.logger.Warn("failed to sign thumbnail url", "file_id", f.ID, "error", err)
		}
		resp.ThumbnailURL = link
	}
	return resp
}
