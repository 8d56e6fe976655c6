package handler

import (
	"net/http"

	"github.com/Dan9191/account-record-service/internal/middleware"
	"github.com/Dan9191/account-record-service/internal/response"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter registers public and protected routes
func NewRouter(h *Handler, authenticator middleware.Authenticator, log logrus.FieldLogger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CorrelationID(log), middleware.Logging(log), middleware.Recovery(log))
	r.NotFoundHandler = middleware.CorrelationID(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, response.KindNotFound, "No route for "+r.URL.Path, nil)
	}))
	r.MethodNotAllowedHandler = middleware.CorrelationID(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, response.KindMethodNotAllowed, r.Method+" is not supported on "+r.URL.Path, nil)
	}))

	// Public routes
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Protected routes
	accounts := r.PathPrefix("/accounts").Subrouter()
	accounts.Use(middleware.AuthMiddleware(authenticator))
	accounts.HandleFunc("", h.ListAccounts).Methods(http.MethodGet)
	accounts.HandleFunc("/by-customer/{customerId}", h.ListByCustomer).Methods(http.MethodGet)
	accounts.HandleFunc("/by-account-numbers", h.ListByAccountNumbers).Methods(http.MethodGet)
	accounts.HandleFunc("/by-description", h.ListByDescription).Methods(http.MethodGet)
	accounts.HandleFunc("/{accountNumber}", h.GetAccount).Methods(http.MethodGet)
	accounts.HandleFunc("/{accountNumber}", h.UpdateDescription).Methods(http.MethodPut)

	return r
}
