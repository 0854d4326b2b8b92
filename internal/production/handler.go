package production

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the production workflow.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs production handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}/usage", h.usage)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	res, err := h.service.CreateProduction(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("create production failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.service.ListProductions(r.Context(), limit)
	if err != nil {
		h.logger.Error("list productions failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, runs)
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid production id")
		return
	}
	usage, err := h.service.ListUsage(r.Context(), id)
	if err != nil {
		h.logger.Error("list production usage failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, usage)
}
