package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-marketplace-service/internal/auth"
	"github.com/fekuna/omnipos-marketplace-service/internal/httpx"
	"github.com/fekuna/omnipos-marketplace-service/internal/logger"
	"github.com/fekuna/omnipos-marketplace-service/internal/settlement"
	"github.com/fekuna/omnipos-marketplace-service/internal/settlement/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	engine settlement.Engine
	logger logger.ZapLogger
}

func NewPaymentHandler(engine settlement.Engine, log logger.ZapLogger) *PaymentHandler {
	return &PaymentHandler{
		engine: engine,
		logger: log,
	}
}

func (h *PaymentHandler) Routes(r chi.Router) {
	r.Post("/payments/initiate", h.Initiate)
	r.Post("/payments/callback", h.Callback)
	r.Get("/payments/callback", h.CallbackRedirect)
	r.Get("/payments/{ref}", h.GetTransaction)
}

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req dto.InitiateInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	res, err := h.engine.Initiate(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusCreated, res)
}

func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.confirm(w, r, &req)
}

// CallbackRedirect accepts the query string providers append when sending
// the buyer back: tx_ref/status/transaction_id for Flutterwave and
// ref/paymentId/PayerID for PayPal.
func (h *PaymentHandler) CallbackRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.ConfirmInput{
		Reference:             firstOf(q.Get("tx_ref"), q.Get("ref")),
		Status:                q.Get("status"),
		ProviderTransactionID: firstOf(q.Get("transaction_id"), q.Get("paymentId")),
	}
	if req.Status == "" && q.Get("PayerID") != "" {
		req.Status = "approved"
	}
	h.confirm(w, r, &req)
}

func (h *PaymentHandler) confirm(w http.ResponseWriter, r *http.Request, req *dto.ConfirmInput) {
	res, err := h.engine.Confirm(r.Context(), req)
	if err != nil {
		h.logger.Warn("payment confirmation failed", zap.String("ref", req.Reference), zap.Error(err))
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.engine.GetTransaction(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, tx)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
