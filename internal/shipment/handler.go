package shipment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the shipment workflow.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs shipment handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers shipment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}/logistics", h.logistics)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateShipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	res, err := h.service.CreateShipment(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrInsufficientStock):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
		case errors.Is(err, ErrDuplicate):
			httpx.Problem(w, http.StatusConflict, "Duplicate Shipment", err.Error())
		default:
			h.logger.Error("create shipment failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	shipments, err := h.service.ListShipments(r.Context(), limit)
	if err != nil {
		h.logger.Error("list shipments failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, shipments)
}

func (h *Handler) logistics(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shipment id")
		return
	}
	lg, err := h.service.GetLogistics(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no logistics for shipment")
			return
		}
		h.logger.Error("get shipment logistics failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, lg)
}
