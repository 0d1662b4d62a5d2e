package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docflow/internal/domain"
)

// User is the API representation of a user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func userToAPI(u *domain.User) User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// CreateUser handles POST /users. Admin only.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), domain.CreateUserRequest{
		Name:  body.Name,
		Email: body.Email,
		Role:  domain.Role(body.Role),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToAPI(user))
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	users, total, err := h.users.List(r.Context(), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]User, len(users))
	for i := range users {
		out[i] = userToAPI(&users[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, page, total))
}

// GetUser handles GET /users/{userID}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToAPI(user))
}

// SetUserActive handles PATCH /users/{userID}/active. Admin only.
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var body setActiveRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.users.SetActive(r.Context(), chi.URLParam(r, "userID"), body.Active); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
