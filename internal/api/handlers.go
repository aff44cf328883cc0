/**
 * @description
 * This file contains the HTTP handlers for the Kinta backend's operator and
 * provisioning endpoints. Handlers parse incoming requests, call the
 * application service, and write the HTTP response; they are the bridge
 * between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/app, internal/store: For service logic and sentinel errors.
 * - github.com/shopspring/decimal: For the balance-correction payload.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/s00laimang01/kinta-backend/internal/app"
	"github.com/s00laimang01/kinta-backend/internal/config"
	"github.com/s00laimang01/kinta-backend/internal/store"
	"github.com/s00laimang01/kinta-backend/pkg/qstashclient"
)

// SchedulerClient is the QStash surface the cron management handler needs.
type SchedulerClient interface {
	CreateSchedule(ctx context.Context, destination, cron string) (*qstashclient.Schedule, error)
	ListSchedules(ctx context.Context) ([]qstashclient.Schedule, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
}

// Handlers holds the application service and collaborators the handlers use.
type Handlers struct {
	service   *app.Service
	scheduler SchedulerClient
	cfg       *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *app.Service, scheduler SchedulerClient, cfg *config.Config) *Handlers {
	return &Handlers{service: service, scheduler: scheduler, cfg: cfg}
}

// apiResponse is the envelope used by operator-facing endpoints.
type apiResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, statusCode int, message, detail string) {
	writeJSON(w, statusCode, apiResponse{Status: "error", Message: message, Error: detail})
}

// generateAccountRequest is the payload of the on-demand provisioning endpoint.
type generateAccountRequest struct {
	UserID    string `json:"userId"`
	Signature string `json:"signature"`
}

// GenerateDedicatedAccountHandler handles on-demand dedicated-account
// provisioning for a single user.
func (h *Handlers) GenerateDedicatedAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req generateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if !validSignature(req.Signature, h.cfg.Signature) {
		writeAPIError(w, http.StatusUnauthorized, "Invalid signature", "Signature mismatch")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid user id", "userId must be a valid UUID")
		return
	}

	result, err := h.service.GenerateDedicatedAccountForUser(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			writeAPIError(w, http.StatusNotFound, "User not found", "User does not exist")
		case errors.Is(err, app.ErrAccountAlreadyExists):
			writeAPIError(w, http.StatusBadRequest, "Account already exists", "Account number already generated")
		case errors.Is(err, app.ErrProvisionRateLimited):
			writeAPIError(w, http.StatusTooManyRequests, "Too many provisioning attempts", "Please wait and try again")
		default:
			log.Printf("level=error component=api endpoint=generate_account msg=\"provisioning failed\" user_id=%s err=%v", userID, err)
			writeAPIError(w, http.StatusInternalServerError, "Failed to generate account number", h.errorDetail(err))
		}
		return
	}

	if !result.Created {
		detail := result.ErrorMessage
		if detail == "" {
			detail = "Unknown error"
		}
		writeAPIError(w, http.StatusInternalServerError, "Failed to generate account number", detail)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{
		Status:  "ok",
		Message: "Account number generated successfully",
	})
}

// balanceCorrectionRequest is the payload of the balance-correction endpoint.
type balanceCorrectionRequest struct {
	TxRef      string           `json:"tx_ref"`
	OldBalance *decimal.Decimal `json:"old_balance,omitempty"`
	NewBalance *decimal.Decimal `json:"new_balance"`
}

// BalanceCorrectionHandler is the operator repair tool: it overwrites a user's
// balance based on a transaction reference.
func (h *Handlers) BalanceCorrectionHandler(w http.ResponseWriter, r *http.Request) {
	var req balanceCorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid JSON format in request body", "")
		return
	}

	if req.TxRef == "" {
		writeAPIError(w, http.StatusBadRequest, "Transaction reference (tx_ref) is required and must be a string", "")
		return
	}
	if req.NewBalance == nil {
		writeAPIError(w, http.StatusBadRequest, "New balance is required and must be a number", "")
		return
	}

	result, err := h.service.CorrectUserBalance(r.Context(), req.TxRef, *req.NewBalance)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTransactionNotFound):
			writeAPIError(w, http.StatusNotFound, "Transaction not found", "")
		case errors.Is(err, store.ErrUserNotFound):
			writeAPIError(w, http.StatusNotFound, "User associated with transaction not found", "")
		default:
			log.Printf("level=error component=api endpoint=balance_correction msg=\"correction failed\" tx_ref=%s err=%v", req.TxRef, err)
			writeAPIError(w, http.StatusInternalServerError, "Internal server error occurred while correcting balance", h.errorDetail(err))
		}
		return
	}

	if !result.Corrected {
		writeJSON(w, http.StatusOK, apiResponse{
			Status:  "success",
			Message: "User balance is already correct",
			Data: map[string]interface{}{
				"current_balance": result.NewBalance,
				"transaction_ref": result.TransactionRef,
			},
		})
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{
		Status:  "success",
		Message: "User balance corrected successfully",
		Data: map[string]interface{}{
			"user_id":              result.UserID,
			"old_balance":          result.OldBalance,
			"new_balance":          result.NewBalance,
			"transaction_ref":      result.TransactionRef,
			"can_make_transaction": result.CanMakeTransaction,
		},
	})
}

// DataHealthHandler reports the success/failure rates of recent data
// transactions.
func (h *Handlers) DataHealthHandler(w http.ResponseWriter, r *http.Request) {
	health, err := h.service.DataTransactionHealth(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=data_health msg=\"health query failed\" err=%v", err)
		writeAPIError(w, http.StatusInternalServerError, "Error fetching data transactions health status", h.errorDetail(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Data transactions health status",
		"data":    health,
	})
}

// errorDetail hides internals outside development mode.
func (h *Handlers) errorDetail(err error) string {
	if h.cfg.IsDevelopment() {
		return err.Error()
	}
	return ""
}
