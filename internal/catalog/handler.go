package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for catalog reference data.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/locations", h.listLocations)
	r.Post("/locations", h.createLocation)
	r.Get("/materials", h.listMaterials)
	r.Post("/materials", h.createMaterial)
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}/bom", h.listBOM)
	r.Post("/bom", h.createBOMLine)
	r.Delete("/bom/{id}", h.deleteBOMLine)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error("catalog request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, locations)
}

func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	loc, err := h.service.CreateLocation(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loc)
}

func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.ListMaterials(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, materials)
}

func (h *Handler) createMaterial(w http.ResponseWriter, r *http.Request) {
	var req CreateMaterialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	m, err := h.service.CreateMaterial(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) listBOM(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	lines, err := h.service.ListBOM(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) createBOMLine(w http.ResponseWriter, r *http.Request) {
	var req CreateBOMLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	line, err := h.service.AddBOMLine(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, line)
}

func (h *Handler) deleteBOMLine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid BOM line id")
		return
	}
	if err := h.service.RemoveBOMLine(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
