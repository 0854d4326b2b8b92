package stock

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for ledger reads.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.overview)
	r.Get("/summary", h.summary)
	r.Get("/export", h.export)
}

func parseFilter(r *http.Request) (Filter, error) {
	var filter Filter
	if raw := r.URL.Query().Get("location"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid location filter %q", raw)
		}
		filter.LocationID = &id
	}
	return filter, nil
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	overview, err := h.service.Overview(r.Context(), filter)
	if err != nil {
		h.logger.Error("stock overview failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.logger.Error("stock summary failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	data, err := h.service.ExportXLSX(r.Context(), filter)
	if err != nil {
		h.logger.Error("stock export failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	name := fmt.Sprintf("stocks_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
