package department

import (
	"context"
	"net/http"

	"github.com/frahmantamala/medical-filemanager/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Department, error)
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

func (h *Handler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	responses := make([]DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		responses = append(responses, d.ToResponse())
	}

	h.WriteJSON(w, http.StatusOK, DepartmentsResponse{Departments: responses})
}
