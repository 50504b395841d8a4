package category

import (
	"context"
	"net/http"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/folder"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, viewer *internal.User) ([]*Category, error)
	GetVisible(ctx context.Context, viewer *internal.User, id int64) (*Category, error)
	Create(ctx context.Context, req CreateCategoryRequest) (*Category, folder.Result, error)
	Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*Category, error)
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

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	categories, err := h.Service.List(r.Context(), user)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		responses = append(responses, c.ToResponse())
	}

	h.WriteJSON(w, http.StatusOK, CategoriesResponse{
		Categories: responses,
	})
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
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

	cat, err := h.Service.GetVisible(r.Context(), user, id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, cat.ToResponse())
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, r, err)
		return
	}

	cat, res, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, CreateCategoryResponse{
		Category:    cat.ToResponse(),
		Provisioned: res,
	})
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	var req UpdateCategoryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, r, err)
		return
	}

	cat, err := h.Service.Update(r.Context(), id, req)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, cat.ToResponse())
}
