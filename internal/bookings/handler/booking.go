package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"spacer/internal/bookings/service"
	apperrors "spacer/pkg/errors"
	httputil "spacer/pkg/http"
	"spacer/pkg/logger"
	"spacer/pkg/middleware"
	"spacer/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type createBookingRequest struct {
	SpaceID   string `json:"space_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Purpose   string `json:"purpose"`
}

type payBookingRequest struct {
	Method        model.PaymentMethod `json:"payment_method"`
	TransactionID string              `json:"transaction_id"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.Unauthorized("Missing authentication"))
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	start, err := parseRFC3339(req.StartTime, "start_time")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := parseRFC3339(req.EndTime, "end_time")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking := &model.Booking{
		SpaceID:   req.SpaceID,
		StartTime: start,
		EndTime:   end,
		Purpose:   req.Purpose,
	}

	if err := h.service.Create(r.Context(), actor, booking); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, bookings, total, limit, offset)
}

// GetMine lists the authenticated caller's own bookings.
func (h *BookingHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.Unauthorized("Missing authentication"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.GetByUser(r.Context(), actor.ID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, bookings, total, limit, offset)
}

// Pay records a synchronous payment (card, cash) and confirms the
// booking. M-Pesa payments go through the payments endpoints instead.
func (h *BookingHandler) Pay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.Unauthorized("Missing authentication"))
		return
	}

	var req payBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	payment, err := h.service.Pay(r.Context(), actor, ps.ByName("id"), req.Method, req.TransactionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, payment)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		httputil.WriteError(w, apperrors.Unauthorized("Missing authentication"))
		return
	}

	booking, err := h.service.Cancel(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/me", h.GetMine)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/payment", h.Pay)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
}

func parseRFC3339(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperrors.InvalidInput(field + " is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(field + " must be a valid RFC3339 timestamp")
	}
	return t.UTC(), nil
}
