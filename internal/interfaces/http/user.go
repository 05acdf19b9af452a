package http

import (
	"net/http"

	"horizon/internal/shared/middleware"
)

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleMe handles GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	secret, _ := r.Context().Value(middleware.SessionSecretKey).(string)
	u := h.users.GetLoggedInUser(r.Context(), secret)
	if u == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
