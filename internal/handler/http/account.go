package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/service"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/httputil"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/validator"
)

// AccountHandler handles HTTP requests for the account page: addresses,
// saved cards, profile, and notification preferences.
type AccountHandler struct {
	service *service.AccountService
	logger  *slog.Logger
}

func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateAddressRequest is the JSON request body for adding an address.
type CreateAddressRequest struct {
	Line1      string `json:"addr1" validate:"required"`
	Line2      string `json:"addr2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"zip" validate:"required"`
	Country    string `json:"country" validate:"required"`
	IsDefault  bool   `json:"isDefault"`
}

// UpdateAddressRequest is the JSON request body for editing an address.
// Absent fields keep their stored value.
type UpdateAddressRequest struct {
	Line1      *string `json:"addr1"`
	Line2      *string `json:"addr2"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"zip"`
	Country    *string `json:"country"`
}

// SaveCardRequest is the JSON request body for saving a card from the
// account page. The raw number is used for verification and tokenization
// only and is never stored.
type SaveCardRequest struct {
	Number string `json:"number" validate:"required"`
	Expiry string `json:"exp" validate:"required"`
}

// ProfileRequest is the JSON request body for the contact record.
type ProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
}

// PreferencesRequest is the JSON request body for the notification record.
type PreferencesRequest struct {
	News  bool `json:"news"`
	Deals bool `json:"deals"`
	SMS   bool `json:"sms"`
}

// --- Addresses ---

// ListAddresses handles GET /api/v1/account/addresses
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	addrs, err := h.service.ListAddresses(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: addrs})
}

// CreateAddress handles POST /api/v1/account/addresses
func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateAddressRequest
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

	created, err := h.service.CreateAddress(r.Context(), userID, service.CreateAddressInput{
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: created})
}

// UpdateAddress handles PUT /api/v1/account/addresses/{id}
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	updated, err := h.service.UpdateAddress(r.Context(), userID, chi.URLParam(r, "id"), service.UpdateAddressInput{
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: updated})
}

// DeleteAddress handles DELETE /api/v1/account/addresses/{id}
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	if err := h.service.DeleteAddress(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MakeDefaultAddress handles PUT /api/v1/account/addresses/{id}/default
func (h *AccountHandler) MakeDefaultAddress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	if err := h.service.MakeDefaultAddress(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Payment methods ---

// ListPaymentMethods handles GET /api/v1/account/payment-methods
func (h *AccountHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	methods, err := h.service.ListPaymentMethods(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: methods})
}

// SaveCard handles POST /api/v1/account/payment-methods
func (h *AccountHandler) SaveCard(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SaveCardRequest
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

	created, err := h.service.SaveCard(r.Context(), userID, service.SaveCardInput{
		Number: req.Number,
		Expiry: req.Expiry,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: created})
}

// DeletePaymentMethod handles DELETE /api/v1/account/payment-methods/{id}
func (h *AccountHandler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	if err := h.service.DeletePaymentMethod(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Profile and preferences ---

// GetProfile handles GET /api/v1/account/profile
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	p, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// SaveProfile handles PUT /api/v1/account/profile
func (h *AccountHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ProfileRequest
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

	profile := domain.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := h.service.SaveProfile(r.Context(), userID, profile); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

// GetPreferences handles GET /api/v1/account/preferences
func (h *AccountHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	p, err := h.service.GetPreferences(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// SavePreferences handles PUT /api/v1/account/preferences
func (h *AccountHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	prefs := domain.Preferences{News: req.News, Deals: req.Deals, SMS: req.SMS}
	if err := h.service.SavePreferences(r.Context(), userID, prefs); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: prefs})
}
