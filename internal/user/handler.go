package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/internal/session"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
)

type ServiceAPI interface {
	Profile(ctx context.Context, viewer *internal.User) (*ProfileResponse, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	Approve(ctx context.Context, id int64) (*User, error)
	Sessions(ctx context.Context, id int64, limit int) ([]*session.Session, error)
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.CurrentUser(r)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	profile, err := h.Service.Profile(r.Context(), user)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, UsersResponse{Users: responses})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, r, err)
		return
	}

	u, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, CreateUserResponse{
		Success: true,
		User:    u.ToResponse(),
	})
}

func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	u, err := h.Service.Approve(r.Context(), id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

func (h *Handler) GetUserSessions(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	// a missing or malformed limit falls back to the service default
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.Service.Sessions(r.Context(), id, limit)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	responses := make([]session.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, s.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, SessionsResponse{Sessions: responses})
}
