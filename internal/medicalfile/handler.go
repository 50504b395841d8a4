package medicalfile

import (
	"context"
	"net/http"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
)

type ServiceAPI interface {
	Upload(ctx context.Context, viewer *internal.User, req UploadRequest) (*MedicalFile, string, error)
	List(ctx context.Context, viewer *internal.User, req ListFilesRequest) (*FilesResponse, error)
	Detail(ctx context.Context, viewer *internal.User, id int64) (*FileResponse, error)
	DownloadURL(ctx context.Context, viewer *internal.User, id int64) (string, error)
	Delete(ctx context.Context, viewer *internal.User, id int64) error
	MaxRequestBytes() int64
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Service.MaxRequestBytes())

	var req UploadRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, r, err)
		return
	}

	file, url, err := h.Service.Upload(r.Context(), user, req)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, UploadResponse{
		Success:  true,
		Message:  "File uploaded successfully",
		FileID:   file.ID,
		FileURL:  url,
		Category: file.CategoryName,
	})
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	q := r.URL.Query()
	resp, err := h.Service.List(r.Context(), user, ListFilesRequest{
		Category: q.Get("category"),
		Year:     q.Get("year"),
		Month:    q.Get("month"),
		Date:     q.Get("date"),
		Search:   q.Get("search"),
		Page:     q.Get("page"),
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	resp, err := h.Service.Detail(r.Context(), user, id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	link, err := h.Service.DownloadURL(r.Context(), user, id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DeleteResponse{Success: true})
}
