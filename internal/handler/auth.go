package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/account-record-service/internal/response"
	"github.com/Dan9191/account-record-service/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, &service.ValidationError{Message: "Malformed request body"})
		return
	}
	if _, err := h.auth.Register(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, &service.ValidationError{Message: "Malformed request body"})
		return
	}
	resp, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// Health reports liveness and the number of stored records
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.health.Count(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"status": "UP", "records": count})
}
