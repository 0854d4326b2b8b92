package purchase

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the purchase workflow.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs purchase handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	p, err := h.service.CreatePurchase(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("create purchase failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	purchases, err := h.service.ListPurchases(r.Context(), limit)
	if err != nil {
		h.logger.Error("list purchases failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, purchases)
}
