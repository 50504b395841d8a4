package medicalfile

import "time"

type MedicalFile struct {
	ID               int64     `gorm:"primaryKey"`
	DateFolderID     int64     `gorm:"column:date_folder_id;not null;index"`
	CategoryID       int64     `gorm:"column:category_id;not null;index"`
	Name             string    `gorm:"column:name;size:255;not null"`
	Description      string    `gorm:"column:description"`
	FileType         string    `gorm:"column:file_type;size:3;not null"`
	MimeType         string    `gorm:"column:mime_type;size:255"`
	Size             int64     `gorm:"column:size;not null"`
	Checksum         string    `gorm:"column:checksum;size:64"`
	StorageBackend   string    `gorm:"column:storage_backend;size:16"`
	StoragePath      string    `gorm:"column:storage_path"`
	ThumbnailPath    *string   `gorm:"column:thumbnail_path"`
	ExtractedText    *string   `gorm:"column:extracted_text"`
	ProcessingStatus string    `gorm:"column:processing_status;size:16;not null"`
	ProcessingError  *string   `gorm:"column:processing_error"`
	UploadedBy       int64     `gorm:"column:uploaded_by;not null;index"`
	UploadedAt       time.Time `gorm:"column:uploaded_at;autoCreateTime;<-:create"`
}

func (MedicalFile) TableName() string { return "medical_files" }
