package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/Dan9191/account-record-service/internal/middleware"
	"github.com/Dan9191/account-record-service/internal/response"
	"github.com/Dan9191/account-record-service/internal/service"
	"github.com/gorilla/mux"
)

type updateDescriptionRequest struct {
	Description string `json:"description"`
	Version     *int64 `json:"version,omitempty"`
}

// ListAccounts handles GET /accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	spec, err := pageSpec(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.accounts.List(r.Context(), spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, "", page)
}

// GetAccount handles GET /accounts/{accountNumber}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	view, err := h.accounts.GetByAccountNumber(r.Context(), mux.Vars(r)["accountNumber"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, "", view)
}

// ListByCustomer handles GET /accounts/by-customer/{customerId}
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	spec, err := pageSpec(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.accounts.ListByCustomer(r.Context(), mux.Vars(r)["customerId"], spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, "", page)
}

// ListByAccountNumbers handles GET /accounts/by-account-numbers
func (h *Handler) ListByAccountNumbers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("accountNumbers") {
		h.writeError(w, r, &service.ValidationError{Field: "accountNumbers", Message: "parameter is required"})
		return
	}
	spec, err := pageSpec(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.accounts.ListByAccountNumbers(r.Context(), splitList(q["accountNumbers"]), spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, "", page)
}

// ListByDescription handles GET /accounts/by-description
func (h *Handler) ListByDescription(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("description") {
		h.writeError(w, r, &service.ValidationError{Field: "description", Message: "parameter is required"})
		return
	}
	spec, err := pageSpec(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.accounts.ListByDescription(r.Context(), q.Get("description"), spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, "", page)
}

// UpdateDescription handles PUT /accounts/{accountNumber}
func (h *Handler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	var req updateDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, &service.ValidationError{Message: "Malformed request body"})
		return
	}
	ctx := r.Context()
	if user, ok := middleware.UserFromContext(ctx); ok {
		ctx = logger.WithField(ctx, "username", user.Username)
	}
	view, err := h.accounts.UpdateDescription(ctx, mux.Vars(r)["accountNumber"], req.Description, req.Version)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, "Account description updated successfully.", view)
}
