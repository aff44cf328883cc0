/**
 * @description
 * Webhook handlers for the two upstream transaction providers. Each handler
 * decodes the provider's payload, hands it to the reconciler, and maps the
 * reconcile outcome onto the HTTP responses the providers expect.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/s00laimang01/kinta-backend/internal/app"
	"github.com/s00laimang01/kinta-backend/internal/domain"
	"github.com/s00laimang01/kinta-backend/internal/store"
)

// webhookResponse mirrors the acknowledgement shape the providers receive.
type webhookResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func writeWebhookResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, webhookResponse{Message: message, Status: statusCode})
}

// SMEPlugWebhookHandler processes transaction status notifications from the
// SME Plug provider.
func (h *Handlers) SMEPlugWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var payload domain.SMEPlugWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeWebhookResponse(w, http.StatusBadRequest, "Invalid webhook payload.")
		return
	}

	result, err := h.service.HandleSMEPlugWebhook(r.Context(), payload)
	h.writeReconcileResponse(w, "sme_plug", result, err)
}

// VTPassWebhookHandler processes transaction status notifications from the
// VTPass provider.
func (h *Handlers) VTPassWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var payload domain.VTPassWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeWebhookResponse(w, http.StatusBadRequest, "Invalid webhook payload.")
		return
	}

	result, err := h.service.HandleVTPassWebhook(r.Context(), payload)
	h.writeReconcileResponse(w, "vt_pass", result, err)
}

func (h *Handlers) writeReconcileResponse(w http.ResponseWriter, provider string, result *domain.ReconcileResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidWebhookType):
			writeWebhookResponse(w, http.StatusBadRequest, "Invalid webhook type.")
		case errors.Is(err, store.ErrTransactionNotFound):
			writeWebhookResponse(w, http.StatusNotFound, "Transaction with this reference not found.")
		case errors.Is(err, store.ErrUserNotFound):
			writeWebhookResponse(w, http.StatusNotFound, "User not found.")
		default:
			log.Printf("level=error component=api endpoint=webhook provider=%s msg=\"reconcile failed\" err=%v", provider, err)
			writeWebhookResponse(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if result.AlreadyCompleted {
		writeWebhookResponse(w, http.StatusBadRequest, result.Message)
		return
	}

	writeWebhookResponse(w, http.StatusOK, result.Message)
}
