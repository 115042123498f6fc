package handler

import (
	"encoding/json"
	"net/http"

	"spacer/internal/payments/provider"
	"spacer/internal/payments/service"
	apperrors "spacer/pkg/errors"
	httputil "spacer/pkg/http"
	"spacer/pkg/logger"
	"spacer/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

type initiateMpesaRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type initiateMpesaResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
}

// callbackAck is the acknowledgement Daraja expects; anything else
// makes it retry the callback.
type callbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

func (h *PaymentHandler) InitiateMpesa(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.Unauthorized("Missing authentication"))
		return
	}

	var req initiateMpesaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	reference, err := h.service.InitiateMpesa(r.Context(), actor, ps.ByName("id"), req.PhoneNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, initiateMpesaResponse{CheckoutRequestID: reference})
}

// Callback receives the asynchronous STK push outcome. It is not
// behind the actor boundary; the provider is the caller.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cb provider.STKCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid callback payload"))
		return
	}

	outcome := service.OutcomeFailure
	if cb.Success() {
		outcome = service.OutcomeSuccess
	}

	if err := h.service.Reconcile(r.Context(), cb.Reference(), outcome); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, callbackAck{ResultCode: 0, ResultDesc: "Accepted"})
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/mpesa/id/:id", h.InitiateMpesa)
	router.POST("/api/v1/payments/mpesa/callback", h.Callback)
}
