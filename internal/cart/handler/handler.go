package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-marketplace-service/internal/cart"
	"github.com/fekuna/omnipos-marketplace-service/internal/cart/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/httpx"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	uc     cart.UseCase
	logger logger.ZapLogger
}

func NewCartHandler(uc cart.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CartHandler) Routes(r chi.Router) {
	r.Get("/carts/{code}", h.GetCart)
	r.Post("/carts/{code}/items", h.AddItem)
	r.Get("/carts/{code}/products/{productID}", h.ProductInCart)
	r.Patch("/cart-items/{id}", h.UpdateQuantity)
	r.Delete("/cart-items/{id}", h.RemoveItem)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.GetCart(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddItemInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	line, err := h.uc.AddItem(r.Context(), chi.URLParam(r, "code"), &req)
	if err != nil {
		h.logger.Warn("add cart item failed", zap.String("cart_code", chi.URLParam(r, "code")), zap.Error(err))
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, line)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateQuantityInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	line, err := h.uc.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, line)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.RemoveLine(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ProductInCart(w http.ResponseWriter, r *http.Request) {
	ok, err := h.uc.ProductInCart(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "productID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, map[string]bool{"in_cart": ok})
}
