package storage

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
	"github.com/go-chi/chi"
)

var (
	ErrMediaForbidden = internal.NewForbiddenError("Invalid or expired media link", internal.ErrCodeInvalidToken)
	ErrMediaNotFound  = internal.NewNotFoundError("File not found", internal.ErrCodeFileNotFound)
)

// inlineTypes render passively in a browser. Anything else, including SVG
// and HTML which can carry script, is served as a download.
var inlineTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/bmp":       true,
	"image/webp":      true,
	"text/plain":      true,
}

// ServeInline reports whether a blob of contentType may be shown in the
// browser rather than downloaded.
func ServeInline(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if inlineTypes[mediaType] {
		return true
	}
	return strings.HasPrefix(mediaType, "video/") || strings.HasPrefix(mediaType, "audio/")
}

// ContentDisposition is the Content-Disposition value for a blob.
func ContentDisposition(name, contentType string) string {
	if ServeInline(contentType) {
		return "inline"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(name)})
	if disposition == "" {
		return "attachment"
	}
	return disposition
}

// MediaHandler streams blobs behind signed links for the backends that do
// not presign their own URLs.
type MediaHandler struct {
	*transport.BaseHandler
	Blob   Blob
	Signer *Signer
}

func NewMediaHandler(baseHandler *transport.BaseHandler, blob Blob, signer *Signer) *MediaHandler {
	return &MediaHandler{
		BaseHandler: baseHandler,
		Blob:        blob,
		Signer:      signer,
	}
}

func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" {
		h.HandleError(w, r, ErrMediaNotFound)
		return
	}

	if err := h.Signer.Verify(path, r.URL.Query().Get("token")); err != nil {
		h.HandleError(w, r, ErrMediaForbidden)
		return
	}

	rc, err := h.Blob.Open(r.Context(), path)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			h.HandleError(w, r, ErrMediaNotFound)
			return
		}
		h.HandleError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", ContentDisposition(path, contentType))
	if !ServeInline(contentType) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warn("media stream interrupted", "path", path, "error", err)
	}
}
