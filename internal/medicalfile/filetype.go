package medicalfile

import (
	"path/filepath"
	"strings"
)

type FileType string

const (
	FileTypePDF   FileType = "PDF"
	FileTypeDoc   FileType = "DOC"
	FileTypeExcel FileType = "XLS"
	FileTypeImage FileType = "IMG"
	FileTypeVideo FileType = "VID"
	FileTypeAudio FileType = "AUD"
	FileTypeOther FileType = "OTH"
)

var fileTypeNames = map[FileType]string{
	FileTypePDF:   "PDF Document",
	FileTypeDoc:   "Word Document",
	FileTypeExcel: "Excel File",
	FileTypeImage: "Image",
	FileTypeVideo: "Video",
	FileTypeAudio: "Audio",
	FileTypeOther: "Other",
}

func (t FileType) DisplayName() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return fileTypeNames[FileTypeOther]
}

func (t FileType) IsValid() bool {
	_, ok := fileTypeNames[t]
	return ok
}

var allowedExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".txt": {}, ".csv": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {}, ".bmp": {}, ".webp": {},
	".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {}, ".webm": {},
	".mp3": {}, ".wav": {}, ".flac": {}, ".aac": {}, ".ogg": {},
	".zip": {}, ".rar": {}, ".7z": {}, ".tar": {}, ".gz": {},
}

// IsAllowedExtension reports whether the file name carries an extension
// accepted for upload.
func IsAllowedExtension(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Classify derives the file type from the MIME type first and falls back to
// the file name's extension.
func Classify(mimeType, filename string) FileType {
	mime := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mime, "pdf"):
		return FileTypePDF
	case strings.Contains(mime, "word"), strings.Contains(mime, "msword"), strings.Contains(mime, "officedocument.word"):
		return FileTypeDoc
	case strings.Contains(mime, "excel"), strings.Contains(mime, "spreadsheet"):
		return FileTypeExcel
	case strings.HasPrefix(mime, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mime, "video/"):
		return FileTypeVideo
	case strings.HasPrefix(mime, "audio/"):
		return FileTypeAudio
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FileTypePDF
	case ".doc", ".docx":
		return FileTypeDoc
	case ".xls", ".xlsx":
		return FileTypeExcel
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg":
		return FileTypeImage
	case ".mp4", ".mov", ".avi", ".wmv", ".flv", ".webm":
		return FileTypeVideo
	case ".mp3", ".wav", ".flac", ".aac", ".ogg":
		return FileTypeAudio
	}
	return FileTypeOther
}
