package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"watchlist-service/internal/store"
	"watchlist-service/pkg/auth"
)

// Stores bundles every store the handlers depend on.
type Stores struct {
	Platforms store.PlatformStore
	Movies    store.MovieStore
	Reviews   store.ReviewStore
	Users     store.UserStore
	Tokens    store.TokenStore
}

// Handler holds the dependencies for every HTTP handler of the service.
type Handler struct {
	platforms    store.PlatformStore
	movies       store.MovieStore
	reviews      store.ReviewStore
	users        store.UserStore
	tokens       store.TokenStore
	logger       *slog.Logger
	validator    *validator.Validate
	tokenManager auth.TokenManager
}

// NewHandler creates a new Handler.
func NewHandler(stores Stores, l *slog.Logger, v *validator.Validate, tm auth.TokenManager) *Handler {
	return &Handler{
		platforms:    stores.Platforms,
		movies:       stores.Movies,
		reviews:      stores.Reviews,
		users:        stores.Users,
		tokens:       stores.Tokens,
		logger:       l,
		validator:    v,
		tokenManager: tm,
	}
}

// NewValidator creates the request validator. Fields are reported under
// their JSON names so validation errors line up with what clients sent.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// respondFieldErrors writes a 400 with a per-field error map. Object
// level failures use the non_field_errors key.
func (h *Handler) respondFieldErrors(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	h.respondJSON(w, r, http.StatusBadRequest, map[string]interface{}{"errors": fields})
}

// respondValidationError translates a validator error into the
// per-field 400 payload.
func (h *Handler) respondValidationError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "Request validation failed", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
	h.respondFieldErrors(w, r, validationMessages(err))
}

func validationMessages(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["non_field_errors"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be " + fe.Param() + " or more"
	case "lte":
		return "must be " + fe.Param() + " or less"
	default:
		return "is invalid"
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusNotFound, "Not Found")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}
