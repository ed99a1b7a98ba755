package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/httpx"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/sales"
	"github.com/go-chi/chi/v5"
)

type SalesHandler struct {
	agg    sales.Aggregator
	logger logger.ZapLogger
}

func NewSalesHandler(agg sales.Aggregator, log logger.ZapLogger) *SalesHandler {
	return &SalesHandler{
		agg:    agg,
		logger: log,
	}
}

func (h *SalesHandler) Routes(r chi.Router) {
	r.Get("/sales/vendor", h.VendorSummary)
	r.Get("/sales/platform", h.PlatformSummary)
}

// VendorSummary serves the caller's own statistics. Admins may pass
// ?vendor_id= to read any vendor.
func (h *SalesHandler) VendorSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.agg.VendorSummary(r.Context(), auth.FromContext(r.Context()), r.URL.Query().Get("vendor_id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, stats)
}

func (h *SalesHandler) PlatformSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.agg.PlatformSummary(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, stats)
}
