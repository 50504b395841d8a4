package browse

import (
	"context"
	"net/http"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
)

type ServiceAPI interface {
	Structure(ctx context.Context, viewer *internal.User) (Structure, error)
	Stats(ctx context.Context, viewer *internal.User) (*StatsResponse, error)
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

func (h *Handler) GetStructure(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	structure, err := h.Service.Structure(r.Context(), user)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, StructureResponse{
		Structure: structure,
		Tree:      structure.Tree(),
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	stats, err := h.Service.Stats(r.Context(), user)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
