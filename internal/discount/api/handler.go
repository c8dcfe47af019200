package api

import (
	"context"
	"encoding/json"
	"net/http"

	"ms-discounts/internal/logger"
	"ms-discounts/internal/models"
	"ms-discounts/internal/utils"

	"github.com/go-playground/validator/v10"
)

type DiscountResolver interface {
	Resolve(ctx context.Context, code, userID, ticketTypeID string, quantity int) (*models.DiscountResult, error)
	ApplyUsage(ctx context.Context, result *models.DiscountResult, userID, orderID string, originalAmount, finalAmount int64) error
}

type Handler struct {
	Service  DiscountResolver
	Validate *validator.Validate
	Logger   *logger.Logger
}

func NewHandler(service DiscountResolver, log *logger.Logger) *Handler {
	return &Handler{
		Service:  service,
		Validate: validator.New(),
		Logger:   log,
	}
}

type ValidateCodeRequest struct {
	Code         string `json:"code" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	TicketTypeID string `json:"ticket_type_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
}

type ApplyCodeRequest struct {
	Code         string `json:"code" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	TicketTypeID string `json:"ticket_type_id" validate:"required"`
	OrderID      string `json:"order_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
}

// ValidateCode resolves a code without side effects. A rejected code is
// still a 200: the result carries is_valid=false and the reason.
func (h *Handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", err.Error()))
		return
	}

	result, err := h.Service.Resolve(r.Context(), req.Code, req.UserID, req.TicketTypeID, req.Quantity)
	if err != nil {
		h.Logger.Error("API", "discount resolution failed: "+err.Error())
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not validate code", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Code validated", result))
}

// ApplyCode records usage for an already-confirmed order. Failures here are
// operational errors: the payment stands, the caller must surface the
// bookkeeping failure.
func (h *Handler) ApplyCode(w http.ResponseWriter, r *http.Request) {
	var req ApplyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", err.Error()))
		return
	}

	result, err := h.Service.Resolve(r.Context(), req.Code, req.UserID, req.TicketTypeID, req.Quantity)
	if err != nil {
		h.Logger.Error("API", "discount resolution failed: "+err.Error())
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not apply code", err.Error()))
		return
	}
	if !result.IsValid {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Code is not valid", result.Error))
		return
	}

	originalAmount := result.DiscountAmount + result.FinalAmount
	if err := h.Service.ApplyUsage(r.Context(), result, req.UserID, req.OrderID, originalAmount, result.FinalAmount); err != nil {
		h.Logger.Error("API", "usage recording failed for order "+req.OrderID+": "+err.Error())
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not record code usage", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Code applied", result))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
