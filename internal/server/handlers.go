package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/longkey1/kitlend/internal/lending"
)

// maxBodyBytes limits reservation request bodies
const maxBodyBytes = 64 << 10

// Handler serves the lending API
type Handler struct {
	service  *lending.Service
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewHandler creates the API handler. A nil cache disables response caching.
func NewHandler(service *lending.Service, cache Cache, cacheTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache != nil {
		cache = withGenerations(cache)
	}
	return &Handler{service: service, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, Logging(h.logger), Recovery(h.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.cache != nil {
				r.Use(ResponseCache(h.cache, h.cacheTTL, h.logger))
			}
			r.Get("/kits", h.listKits)
			r.Get("/kits/{id}", h.getKit)
			r.Get("/kits/serial/{serial}", h.getKitBySerial)
			r.Get("/kit", h.getKit)
			r.Get("/manual", h.text("manual"))
			r.Get("/dev", h.text("dev"))
			r.Get("/settings", h.settings)
		})
		r.Post("/reserve", h.reserve)
	})
	return r
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *lending.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: verr.Error(),
			Code:    http.StatusUnprocessableEntity,
			Fields:  verr.Fields,
		})
	case errors.Is(err, lending.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "The requested resource does not exist")
	case errors.Is(err, context.Canceled):
		// The client is gone; nothing to answer.
	default:
		h.logger.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

func (h *Handler) listKits(w http.ResponseWriter, r *http.Request) {
	kits, err := h.service.Kits(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kits": kits})
}

func (h *Handler) getKit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Missing kit id")
		return
	}
	detail, err := h.service.Kit(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) getKitBySerial(w http.ResponseWriter, r *http.Request) {
	serial, err := strconv.Atoi(chi.URLParam(r, "serial"))
	if err != nil || serial <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "Serial must be a positive integer")
		return
	}
	detail, err := h.service.KitBySerial(r.Context(), serial)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) text(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.service.Text(r.Context(), name)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": doc})
	}
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": settings})
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var reservation lending.Reservation
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&reservation); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Malformed reservation body")
		return
	}

	id, err := h.service.Reserve(r.Context(), reservation)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Availability changed; cached listings are stale.
	if h.cache != nil {
		if err := h.cache.Clear(context.WithoutCancel(r.Context())); err != nil {
			h.logger.Warn("failed to clear response cache", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, map[string]string{"_id": id})
}
