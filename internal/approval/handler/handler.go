package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-marketplace-service/internal/approval"
	"github.com/fekuna/omnipos-marketplace-service/internal/approval/dto"
	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/httpx"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RequestHandler struct {
	uc     approval.UseCase
	logger logger.ZapLogger
}

func NewRequestHandler(uc approval.UseCase, log logger.ZapLogger) *RequestHandler {
	return &RequestHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *RequestHandler) Routes(r chi.Router) {
	r.Route("/product-requests", func(r chi.Router) {
		r.Post("/", h.Submit)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
		r.Get("/{id}/benefit", h.Benefit)
	})
}

func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input dto.SubmitInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}

	req, err := h.uc.Submit(r.Context(), auth.FromContext(r.Context()), &input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, req)
}

// List returns pending requests to admins and a seller's own requests to
// sellers.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := auth.FromContext(r.Context())

	list := h.uc.ListVendorRequests
	if principal != nil && principal.Role == auth.RoleAdmin {
		list = h.uc.ListPending
	}

	reqs, err := list(r.Context(), principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, reqs)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.uc.GetRequest(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.Approve(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("approve product request failed", zap.String("request_id", chi.URLParam(r, "id")), zap.Error(err))
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, p)
}

func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var input dto.RejectInput
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &input); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	req, err := h.uc.Reject(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), input.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Benefit(w http.ResponseWriter, r *http.Request) {
	b, err := h.uc.CalculateBenefit(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, b)
}
