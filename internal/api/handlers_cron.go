/**
 * @description
 * Handlers for the QStash-driven endpoints: the scheduled batch provisioning
 * trigger and the schedule management endpoint (create, list, delete).
 */
package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

const testUpstashSignature = "test-signature"

// CronTriggerHandler runs one batch provisioning pass. QStash calls it on the
// configured schedule with an Upstash-Signature header, verified against the
// account's signing keys. The fixed test value is honored in development only.
func (h *Handlers) CronTriggerHandler(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("Upstash-Signature")
	if signature == "" {
		writeAPIError(w, http.StatusUnauthorized, "Missing signature", "Upstash-Signature header is required")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "Unreadable request body", "")
		return
	}

	if !h.cfg.IsDevelopment() || signature != testUpstashSignature {
		if err := verifyQStashSignature(signature, body, h.cfg.QStashCurrentSigningKey, h.cfg.QStashNextSigningKey); err != nil {
			log.Printf("level=warn component=api endpoint=cron_trigger msg=\"signature verification failed\" err=%v", err)
			writeAPIError(w, http.StatusUnauthorized, "Invalid signature", "Signature verification failed")
			return
		}
	}

	result, err := h.service.ProvisionMissingAccounts(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=cron_trigger msg=\"batch provisioning failed\" err=%v", err)
		writeAPIError(w, http.StatusInternalServerError, "Cron job failed", h.errorDetail(err))
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{
		Status:  "ok",
		Message: "Cron job completed: dedicated account provisioning",
		Data:    result,
	})
}

// cronManageRequest is the payload of the schedule management endpoint.
type cronManageRequest struct {
	Action     string `json:"action"`
	ScheduleID string `json:"scheduleId,omitempty"`
	Signature  string `json:"signature"`
}

// CronManageHandler creates, lists, or deletes the QStash schedule backing the
// batch provisioning job.
func (h *Handlers) CronManageHandler(w http.ResponseWriter, r *http.Request) {
	var req cronManageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if !validSignature(req.Signature, h.cfg.Signature) {
		writeAPIError(w, http.StatusUnauthorized, "Invalid signature", "Signature mismatch")
		return
	}

	switch req.Action {
	case "schedule":
		schedule, err := h.scheduler.CreateSchedule(r.Context(), h.cfg.CronDestinationURL, h.cfg.CronSchedule)
		if err != nil {
			log.Printf("level=error component=api endpoint=cron_manage action=schedule err=%v", err)
			writeAPIError(w, http.StatusInternalServerError, "Failed to create schedule", h.errorDetail(err))
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{
			Status:  "ok",
			Message: "Schedule created successfully",
			Data:    schedule,
		})

	case "list":
		schedules, err := h.scheduler.ListSchedules(r.Context())
		if err != nil {
			log.Printf("level=error component=api endpoint=cron_manage action=list err=%v", err)
			writeAPIError(w, http.StatusInternalServerError, "Failed to list schedules", h.errorDetail(err))
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{
			Status:  "ok",
			Message: "Schedules fetched successfully",
			Data:    schedules,
		})

	case "delete":
		if req.ScheduleID == "" {
			writeAPIError(w, http.StatusBadRequest, "scheduleId is required for delete", "")
			return
		}
		if err := h.scheduler.DeleteSchedule(r.Context(), req.ScheduleID); err != nil {
			log.Printf("level=error component=api endpoint=cron_manage action=delete schedule_id=%s err=%v", req.ScheduleID, err)
			writeAPIError(w, http.StatusInternalServerError, "Failed to delete schedule", h.errorDetail(err))
			return
		}
		writeJSON(w, http.StatusOK, apiResponse{
			Status:  "ok",
			Message: "Schedule deleted successfully",
		})

	default:
		writeAPIError(w, http.StatusBadRequest, "Unknown action", "action must be one of schedule, list, delete")
	}
}
