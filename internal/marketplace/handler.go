package marketplace

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for marketplace credentials and listings.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs marketplace handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers marketplace routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/credential", h.saveCredential)
	r.Get("/probe", h.probe)
	r.Get("/listings", h.listings)
}

func ownerParam(r *http.Request) (int64, bool) {
	owner, err := strconv.ParseInt(r.URL.Query().Get("owner"), 10, 64)
	return owner, err == nil && owner > 0
}

func (h *Handler) saveCredential(w http.ResponseWriter, r *http.Request) {
	var req SaveCredentialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.SaveCredential(r.Context(), req); err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("save marketplace credential failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) probe(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "owner query parameter required")
		return
	}
	res, err := h.service.Probe(r.Context(), owner)
	if err != nil {
		h.logger.Error("marketplace probe failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) listings(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "owner query parameter required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res, err := h.service.Listings(r.Context(), owner, limit)
	if err != nil {
		h.logger.Error("marketplace listings failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
