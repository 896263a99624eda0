package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/service"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/httputil"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/validator"
)

// maxBodyBytes caps JSON request bodies at 1MB.
const maxBodyBytes = 1 << 20

// CheckoutHandler handles HTTP requests for the checkout wizard.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// StartCheckoutRequest is the JSON request body for opening a session.
type StartCheckoutRequest struct {
	Items           []LineItemRequest       `json:"items" validate:"required,min=1,dive"`
	ShippingOptions []ShippingOptionRequest `json:"shipping_options" validate:"omitempty,dive"`
}

// LineItemRequest is one cart line in the start request.
type LineItemRequest struct {
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"required,gt=0"`
}

// ShippingOptionRequest is one shipping rate in the start request.
type ShippingOptionRequest struct {
	ID    string `json:"id" validate:"required"`
	Label string `json:"label" validate:"required"`
	Price int64  `json:"price" validate:"gte=0"`
}

// DraftRequest carries partial form field values.
type DraftRequest struct {
	Fields map[string]string `json:"fields" validate:"required"`
}

// StepRequest names the step a navigation targets.
type StepRequest struct {
	Target int `json:"target" validate:"required,min=1,max=3"`
}

// ShippingSelectRequest names the chosen shipping option.
type ShippingSelectRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

// PaymentKindRequest names the payment method for the session.
type PaymentKindRequest struct {
	Kind string `json:"kind" validate:"required,oneof=card paypal"`
}

// CouponRequest carries the coupon code to try.
type CouponRequest struct {
	Code string `json:"code"`
}

// SubmitRequest carries the submit-time choices.
type SubmitRequest struct {
	SaveCard bool `json:"save_card"`
}

// --- Handlers ---

// StartCheckout handles POST /api/v1/checkout
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req StartCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]domain.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.LineItem{Name: item.Name, Price: item.Price}
	}
	options := make([]domain.ShippingOption, len(req.ShippingOptions))
	for i, opt := range req.ShippingOptions {
		options[i] = domain.ShippingOption{ID: opt.ID, Label: opt.Label, Price: opt.Price}
	}

	view, err := h.service.StartCheckout(r.Context(), userID, service.StartCheckoutInput{
		Items:           items,
		ShippingOptions: options,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: view})
}

// GetSession handles GET /api/v1/checkout/{id}
func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// UpdateDraft handles PUT /api/v1/checkout/{id}/draft
func (h *CheckoutHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.UpdateDraft(r.Context(), chi.URLParam(r, "id"), req.Fields)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Next handles POST /api/v1/checkout/{id}/next
func (h *CheckoutHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.service.Next)
}

// Prev handles POST /api/v1/checkout/{id}/prev
func (h *CheckoutHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.service.Prev)
}

func (h *CheckoutHandler) navigate(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, id string, target int) (*service.SessionView, error)) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := move(r.Context(), chi.URLParam(r, "id"), req.Target)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// SelectShipping handles PUT /api/v1/checkout/{id}/shipping
func (h *CheckoutHandler) SelectShipping(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ShippingSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.SelectShipping(r.Context(), chi.URLParam(r, "id"), req.OptionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// SelectPaymentKind handles PUT /api/v1/checkout/{id}/payment
func (h *CheckoutHandler) SelectPaymentKind(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req PaymentKindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	view, err := h.service.SelectPaymentKind(r.Context(), chi.URLParam(r, "id"), req.Kind)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ApplyCoupon handles PUT /api/v1/checkout/{id}/coupon
func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	view, err := h.service.ApplyCoupon(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Quote handles GET /api/v1/checkout/{id}/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	pricing, err := h.service.Quote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pricing})
}

// Submit handles POST /api/v1/checkout/{id}/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	result, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"), service.SubmitInput{SaveCard: req.SaveCard})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if !result.OrderPlaced {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: result})
}
