package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/Dan9191/account-record-service/internal/repository"
	"github.com/Dan9191/account-record-service/internal/response"
	"github.com/Dan9191/account-record-service/internal/service"
	"github.com/sirupsen/logrus"
)

// Counter reports the number of stored records for the health check
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Handler serves the HTTP API
type Handler struct {
	accounts *service.AccountService
	auth     *service.AuthService
	health   Counter
	log      logrus.FieldLogger
}

// NewHandler initializes a new handler
func NewHandler(accounts *service.AccountService, auth *service.AuthService, health Counter, log logrus.FieldLogger) *Handler {
	return &Handler{accounts: accounts, auth: auth, health: health, log: log}
}

// writeError maps service and store errors onto the error body
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		var fields map[string]string
		if verr.Field != "" {
			fields = map[string]string{verr.Field: verr.Message}
		}
		response.Error(w, r, response.KindValidation, verr.Error(), fields)
	case errors.Is(err, repository.ErrNotFound):
		response.Error(w, r, response.KindNotFound, err.Error(), nil)
	case errors.Is(err, repository.ErrVersionConflict):
		response.Error(w, r, response.KindVersionConflict,
			"The account was modified by another request. Reload it and retry.", nil)
	case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, response.KindValidation, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserDisabled),
		errors.Is(err, service.ErrInvalidToken):
		response.Error(w, r, response.KindAuthenticationFailed, err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, response.KindAccessDenied, "Access denied", nil)
	default:
		logger.FromContext(r.Context(), h.log).WithError(err).Error("Request failed")
		response.Error(w, r, response.KindInternal, "An unexpected error occurred", nil)
	}
}

// pageSpec reads page, size and sort query parameters
func pageSpec(r *http.Request) (models.PageSpec, error) {
	q := r.URL.Query()
	spec := models.PageSpec{Page: 0, Size: models.DefaultPageSize}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return spec, &service.ValidationError{Field: "page", Message: fmt.Sprintf("invalid page %q", raw)}
		}
		spec.Page = page
	}
	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return spec, &service.ValidationError{Field: "size", Message: fmt.Sprintf("invalid size %q", raw)}
		}
		spec.Size = min(size, models.MaxPageSize)
	}
	for _, raw := range q["sort"] {
		order, err := models.ParseSortOrder(raw)
		if err != nil {
			return spec, &service.ValidationError{Field: "sort", Message: err.Error()}
		}
		spec.Sort = append(spec.Sort, order)
	}
	return spec, nil
}

// splitList accepts both a=x,y and a=x&a=y
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
