package medicalfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/medical-filemanager/internal/core/common/pagination"
)

// FlexInt accepts both JSON numbers and numeric strings, as browsers send
// either for the date fields of an upload.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

type UploadRequest struct {
	Filename    string  `json:"filename" validate:"required,max=255"`
	FileContent string  `json:"fileContent" validate:"required"`
	Category    string  `json:"category" validate:"required,max=100"`
	Year        FlexInt `json:"year" validate:"required"`
	Month       FlexInt `json:"month" validate:"required"`
	Date        FlexInt `json:"date" validate:"required"`
	MimeType    string  `json:"mimetype" validate:"required,max=255"`
	FileSize    FlexInt `json:"filesize" validate:"min=0"`
	Description string  `json:"description"`
}

type UploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FileID   int64  `json:"file_id"`
	FileURL  string `json:"file_url"`
	Category string `json:"category"`
}

// ListFilesRequest carries the raw query string filters; parsing and clamping
// happen in the service.
type ListFilesRequest struct {
	Category string
	Year     string
	Month    string
	Date     string
	Search   string
	Page     string
}

type FileResponse struct {
	ID               int64   `json:"id"`
	Filename         string  `json:"filename"`
	FileSize         int64   `json:"filesize"`
	FormattedSize    string  `json:"formatted_size"`
	MimeType         string  `json:"mimetype"`
	FileType         string  `json:"file_type"`
	CreatedAt        string  `json:"created_at"`
	FormattedDate    string  `json:"formatted_date"`
	Description      string  `json:"description"`
	FilePath         string  `json:"filepath"`
	ThumbnailURL     string  `json:"thumbnail_url,omitempty"`
	UploadedBy       string  `json:"uploaded_by"`
	CanDelete        bool    `json:"can_delete"`
	Category         string  `json:"category"`
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	Day              int     `json:"day"`
	ExtractedText    *string `json:"extracted_text,omitempty"`
	ProcessingStatus string  `json:"processing_status,omitempty"`
}

type FilesResponse struct {
	Files      []FileResponse  `json:"files"`
	Pagination pagination.Meta `json:"pagination"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}
