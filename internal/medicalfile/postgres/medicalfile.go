package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	medicalfileDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/medicalfile"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	"github.com/frahmantamala/medical-filemanager/internal/medicalfile"
	"gorm.io/gorm"
)

type MedicalFileRepository struct {
	db *gorm.DB
}

func NewMedicalFileRepository(db *gorm.DB) medicalfile.RepositoryAPI {
	return &MedicalFileRepository{db: db}
}

type fileRow struct {
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
	FileType         string
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

func (r fileRow) toDomain() *medicalfile.MedicalFile {
	return &medicalfile.MedicalFile{
		ID:               r.ID,
		DateFolderID:     r.DateFolderID,
		CategoryID:       r.CategoryID,
		CategoryName:     r.CategoryName,
		DepartmentID:     r.DepartmentID,
		Year:             r.Year,
		Month:            r.Month,
		Day:              r.Day,
		Name:             r.Name,
		Description:      r.Description,
		FileType:         medicalfile.FileType(r.FileType),
		MimeType:         r.MimeType,
		Size:             r.Size,
		Checksum:         r.Checksum,
		StorageBackend:   r.StorageBackend,
		StoragePath:      r.StoragePath,
		ThumbnailPath:    r.ThumbnailPath,
		ExtractedText:    r.ExtractedText,
		ProcessingStatus: r.ProcessingStatus,
		ProcessingError:  r.ProcessingError,
		UploadedBy:       r.UploadedBy,
		UploaderName:     r.UploaderName,
		UploaderUsername: r.UploaderUsername,
		UploadedAt:       r.UploadedAt,
	}
}

const fileColumns = `mf.id, mf.date_folder_id, mf.category_id, c.name AS category_name,
	c.department_id, yf.year, mo.month, df.day, mf.name, mf.description, mf.file_type,
	mf.mime_type, mf.size, mf.checksum, mf.storage_backend, mf.storage_path,
	mf.thumbnail_path, mf.extracted_text, mf.processing_status, mf.processing_error,
	mf.uploaded_by, u.name AS uploader_name, u.username AS uploader_username, mf.uploaded_at`

// joined walks the DateFolder chain so year, month and day come from the
// folders the file lives in.
func (r *MedicalFileRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("medical_files AS mf").
		Joins("JOIN date_folders AS df ON df.id = mf.date_folder_id").
		Joins("JOIN month_folders AS mo ON mo.id = df.month_folder_id").
		Joins("JOIN year_folders AS yf ON yf.id = mo.year_folder_id").
		Joins("JOIN categories AS c ON c.id = mf.category_id")
}

func applyFilter(q *gorm.DB, f medicalfile.Filter) *gorm.DB {
	if f.DepartmentID != nil {
		q = q.Where("c.department_id = ?", *f.DepartmentID)
	}
	if f.Category != "" {
		q = q.Where("c.name = ?", f.Category)
	}
	if f.Year != nil {
		q = q.Where("yf.year = ?", *f.Year)
		if f.Month != nil {
			q = q.Where("mo.month = ?", *f.Month)
			if f.Day != nil {
				q = q.Where("df.day = ?", *f.Day)
			}
		}
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		q = q.Where("(LOWER(mf.name) LIKE ? ESCAPE '\\' OR LOWER(mf.description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create checks that the DateFolder belongs to the file's category, inserts the
// row, then writes the blob. Everything runs in one transaction so a failed
// blob write leaves no row behind.
func (r *MedicalFileRepository) Create(ctx context.Context, row *medicalfileDatamodel.MedicalFile, store medicalfile.StoreFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners []int64
		err := tx.Table("date_folders AS df").
			Joins("JOIN month_folders AS mo ON mo.id = df.month_folder_id").
			Joins("JOIN year_folders AS yf ON yf.id = mo.year_folder_id").
			Where("df.id = ?", row.DateFolderID).
			Pluck("yf.category_id", &owners).Error
		if err != nil {
			return fmt.Errorf("load date folder chain: %w", err)
		}
		if len(owners) == 0 {
			return folder.ErrDateFolderNotFound
		}
		if owners[0] != row.CategoryID {
			return internal.NewInternalError("file category does not match its date folder",
				fmt.Errorf("date folder %d belongs to category %d, not %d", row.DateFolderID, owners[0], row.CategoryID))
		}

		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("insert medical file: %w", err)
		}

		obj, err := store(ctx)
		if err != nil {
			return err
		}
		if obj.Size != row.Size {
			return fmt.Errorf("stored %d bytes, expected %d", obj.Size, row.Size)
		}

		row.StoragePath = obj.Path
		row.Checksum = obj.Checksum
		return tx.Model(&medicalfileDatamodel.MedicalFile{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"storage_path": obj.Path,
				"checksum":     obj.Checksum,
			}).Error
	})
}

func (r *MedicalFileRepository) Count(ctx context.Context, filter medicalfile.Filter) (int64, error) {
	var total int64
	if err := applyFilter(r.joined(ctx), filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *MedicalFileRepository) List(ctx context.Context, filter medicalfile.Filter, limit, offset int) ([]*medicalfile.MedicalFile, error) {
	var rows []fileRow
	err := applyFilter(r.joined(ctx), filter).
		Select(fileColumns).
		Joins("JOIN users AS u ON u.id = mf.uploaded_by").
		Order("mf.uploaded_at DESC, mf.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	files := make([]*medicalfile.MedicalFile, 0, len(rows))
	for _, row := range rows {
		files = append(files, row.toDomain())
	}
	return files, nil
}

func (r *MedicalFileRepository) GetByID(ctx context.Context, id int64) (*medicalfile.MedicalFile, error) {
	var rows []fileRow
	err := r.joined(ctx).
		Select(fileColumns).
		Joins("JOIN users AS u ON u.id = mf.uploaded_by").
		Where("mf.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

func (r *MedicalFileRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&medicalfileDatamodel.MedicalFile{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return medicalfile.ErrFileNotFound
	}
	return nil
}

func (r *MedicalFileRepository) UpdateProcessing(ctx context.Context, id int64, update medicalfile.ProcessingUpdate) error {
	fields := map[string]interface{}{"processing_status": update.Status}
	if update.Error != nil {
		fields["processing_error"] = *update.Error
	}
	if update.ExtractedText != nil {
		fields["extracted_text"] = *update.ExtractedText
	}
	if update.ThumbnailPath != nil {
		fields["thumbnail_path"] = *update.ThumbnailPath
	}

	res := r.db.WithContext(ctx).
		Model(&medicalfileDatamodel.MedicalFile{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return medicalfile.ErrFileNotFound
	}
	return nil
}
