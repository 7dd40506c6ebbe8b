package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bidmarket/internal/apperr"
	"bidmarket/internal/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Handler exposes the engine over HTTP.
type Handler struct {
	Engine *engine.Engine
	Log    *slog.Logger
}

func NewHandler(e *engine.Engine, log *slog.Logger) *Handler {
	return &Handler{Engine: e, Log: log}
}

// PingHandler answers "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HttpError is the uniform error payload.
type HttpError struct {
	Reason string `json:"reason"`
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", slog.String("error", err.Error()))
	}
	render.Status(r, status)
	render.JSON(w, r, HttpError{Reason: err.Error()})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, reason string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, HttpError{Reason: reason})
}

// caller resolves the acting user from the username query parameter. An
// unknown or missing username is a 401, not a 404.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (engine.Caller, bool) {
	username := r.URL.Query().Get("username")
	if username == "" {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, HttpError{Reason: "username is required"})
		return engine.Caller{}, false
	}
	c, err := h.Engine.ResolveCaller(r.Context(), username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, HttpError{Reason: "user does not exist or is invalid"})
			return engine.Caller{}, false
		}
		h.writeErr(w, r, err)
		return engine.Caller{}, false
	}
	return c, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func urlID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func paginationParams(r *http.Request) (limit, offset int, err error) {
	limit, offset = 5, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, errors.New("invalid limit value")
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset value")
		}
	}
	return limit, offset, nil
}
