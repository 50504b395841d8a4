package medicalfile

import (
	"fmt"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	medicalfileDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/medicalfile"
)

var (
	ErrFileNotFound       = internal.NewNotFoundError("File not found", internal.ErrCodeFileNotFound)
	ErrInvalidContent     = internal.NewValidationFieldError("fileContent", "Invalid base64 content", internal.ErrCodeInvalidContent)
	ErrFileTooLarge       = internal.NewValidationFieldError("fileContent", "File exceeds the maximum upload size", internal.ErrCodeFileTooLarge)
	ErrFileTypeNotAllowed = internal.NewValidationFieldError("filename", "File has a disallowed file type", internal.ErrCodeFileTypeNotAllowed)
	ErrUploadForbidden    = internal.NewForbiddenError("Permission denied for this category", internal.ErrCodePermissionDenied)
	ErrDeleteForbidden    = internal.NewForbiddenError("Permission denied", internal.ErrCodePermissionDenied)
	ErrFileForbidden      = internal.NewForbiddenError("Permission denied", internal.ErrCodePermissionDenied)
	ErrStorageFailed      = internal.NewExternalError("Failed to store file", internal.ErrCodeStorageFailed, nil)
)

const (
	StatusNone       = "none"
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MedicalFile is a stored document joined with the folder chain, category and
// uploader it belongs to.
type MedicalFile struct {
	ID               int64
	DateFolderID     int64
	CategoryID       int64
	CategoryName     string
	DepartmentID     int64
	Year             int
	Month            int
	Day              int
	Name             string
	Description      string
	FileType         FileType
	MimeType         string
	Size             int64
	Checksum         string
	StorageBackend   string
	StoragePath      string
	ThumbnailPath    *string
	ExtractedText    *string
	ProcessingStatus string
	ProcessingError  *string
	UploadedBy       int64
	UploaderName     string
	UploaderUsername string
	UploadedAt       time.Time
}

// CanDelete reports whether user may remove the file: staff or the uploader.
func (f *MedicalFile) CanDelete(user *internal.User) bool {
	if user == nil {
		return false
	}
	return user.IsStaff || user.ID == f.UploadedBy
}

func (f *MedicalFile) UploaderDisplayName() string {
	if f.UploaderName != "" {
		return f.UploaderName
	}
	return f.UploaderUsername
}

func ToDataModel(f *MedicalFile) *medicalfileDatamodel.MedicalFile {
	return &medicalfileDatamodel.MedicalFile{
		ID:               f.ID,
		DateFolderID:     f.DateFolderID,
		CategoryID:       f.CategoryID,
		Name:             f.Name,
		Description:      f.Description,
		FileType:         string(f.FileType),
		MimeType:         f.MimeType,
		Size:             f.Size,
		Checksum:         f.Checksum,
		StorageBackend:   f.StorageBackend,
		StoragePath:      f.StoragePath,
		ThumbnailPath:    f.ThumbnailPath,
		ExtractedText:    f.ExtractedText,
		ProcessingStatus: f.ProcessingStatus,
		ProcessingError:  f.ProcessingError,
		UploadedBy:       f.UploadedBy,
		UploadedAt:       f.UploadedAt,
	}
}

func FromDataModel(row *medicalfileDatamodel.MedicalFile) *MedicalFile {
	return &MedicalFile{
		ID:               row.ID,
		DateFolderID:     row.DateFolderID,
		CategoryID:       row.CategoryID,
		Name:             row.Name,
		Description:      row.Description,
		FileType:         FileType(row.FileType),
		MimeType:         row.MimeType,
		Size:             row.Size,
		Checksum:         row.Checksum,
		StorageBackend:   row.StorageBackend,
		StoragePath:      row.StoragePath,
		ThumbnailPath:    row.ThumbnailPath,
		ExtractedText:    row.ExtractedText,
		ProcessingStatus: row.ProcessingStatus,
		ProcessingError:  row.ProcessingError,
		UploadedBy:       row.UploadedBy,
		UploadedAt:       row.UploadedAt,
	}
}

// FormatSize renders a byte count the way the browser shows it.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	units := []string{"KB", "MB", "GB", "TB"}
	i := -1
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}
