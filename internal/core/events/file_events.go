package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeFileUploaded    = "file.uploaded"
	EventTypeFileDeleted     = "file.deleted"
	EventTypeCategoryCreated = "category.created"
)

type FileUploadedEvent struct {
	BaseEvent
	FileID      int64  `json:"file_id"`
	CategoryID  int64  `json:"category_id"`
	FileType    string `json:"file_type"`
	MimeType    string `json:"mime_type"`
	Name        string `json:"name"`
	StoragePath string `json:"storage_path"`
	Size        int64  `json:"size"`
	UploadedBy  int64  `json:"uploaded_by"`
}

func NewFileUploadedEvent(fileID, categoryID int64, fileType, mimeType, name, storagePath string, size, uploadedBy int64) *FileUploadedEvent {
	return &FileUploadedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFileUploaded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"file_id":      fileID,
				"category_id":  categoryID,
				"file_type":    fileType,
				"mime_type":    mimeType,
				"name":         name,
				"storage_path": storagePath,
				"size":         size,
				"uploaded_by":  uploadedBy,
			},
		},
		FileID:      fileID,
		CategoryID:  categoryID,
		FileType:    fileType,
		MimeType:    mimeType,
		Name:        name,
		StoragePath: storagePath,
		Size:        size,
		UploadedBy:  uploadedBy,
	}
}

type FileDeletedEvent struct {
	BaseEvent
	FileID      int64  `json:"file_id"`
	StoragePath string `json:"storage_path"`
	DeletedBy   int64  `json:"deleted_by"`
}

func NewFileDeletedEvent(fileID int64, storagePath string, deletedBy int64) *FileDeletedEvent {
	return &FileDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFileDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"file_id":      fileID,
				"storage_path": storagePath,
				"deleted_by":   deletedBy,
			},
		},
		FileID:      fileID,
		StoragePath: storagePath,
		DeletedBy:   deletedBy,
	}
}

type CategoryCreatedEvent struct {
	BaseEvent
	CategoryID   int64  `json:"category_id"`
	Name         string `json:"name"`
	DepartmentID int64  `json:"department_id"`
	Provisioned  int    `json:"provisioned"`
}

func NewCategoryCreatedEvent(categoryID int64, name string, departmentID int64, provisioned int) *CategoryCreatedEvent {
	return &CategoryCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCategoryCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"category_id":   categoryID,
				"name":          name,
				"department_id": departmentID,
				"provisioned":   provisioned,
			},
		},
		CategoryID:   categoryID,
		Name:         name,
		DepartmentID: departmentID,
		Provisioned:  provisioned,
	}
}
