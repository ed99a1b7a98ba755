package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/category"
	"github.com/fekuna/omnipos-marketplace-service/internal/category/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/httpx"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.CategoryFilters{VendorID: q.Get("vendor_id")}
	if v := q.Get("include_empty"); v != "" {
		includeEmpty, err := strconv.ParseBool(v)
		if err != nil {
			httpx.RespondError(w, apperror.Validation("include_empty must be a boolean"))
			return
		}
		filters.IncludeEmpty = includeEmpty
	}

	categories, err := h.uc.ListCategories(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, categories)
}
