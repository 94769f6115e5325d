package web

import (
	"net/http"
	"time"

	"divecenter/internal/domain/outbox"
)

const outboxListLimit = 100

// handleListOutbox serves GET /admin/outbox: pending plus permanently failed
// certificate email dispatches.
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	pending, err := stores.OutboxStore.ListPending(r.Context(), outboxListLimit)
	if err != nil {
		internalError(w, err)
		return
	}
	failed, err := stores.OutboxStore.ListFailed(r.Context(), outboxListLimit)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "outbox retrieved",
		"data": map[string]any{
			"pending": entriesJSON(pending),
			"failed":  entriesJSON(failed),
		},
	})
}

// handleRetryOutboxEntry serves POST /admin/outbox/{id}/retry: immediately
// re-executes one entry, bypassing the backoff schedule.
func handleRetryOutboxEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	if err := processor.ProcessSingle(r.Context(), id); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	entry, err := stores.OutboxStore.GetByID(r.Context(), id)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "entry processed",
		"data":    entryJSON(entry),
	})
}

// handleAbandonOutboxEntry serves POST /admin/outbox/{id}/abandon.
func handleAbandonOutboxEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	if err := processor.AbandonEntry(r.Context(), id); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "entry abandoned"})
}

// handleListIssuances serves GET /admin/issuances: the most recent certificate
// issuance records.
func handleListIssuances(w http.ResponseWriter, r *http.Request) {
	records, err := stores.IssuanceStore.List(r.Context(), outboxListLimit)
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{
			"application_id":     rec.ApplicationID,
			"certificate_number": rec.CertificateNumber,
			"applicant_name":     rec.ApplicantName,
			"applicant_email":    rec.ApplicantEmail,
			"course_name":        rec.CourseName,
			"completion_date":    rec.CompletionDate,
			"issued_at":          rec.IssuedAt.UTC().Format(time.RFC3339),
			"message_id":         rec.MessageID,
		})
	}
	writeData(w, "issuances retrieved", out)
}

func entryJSON(e outbox.Entry) map[string]any {
	out := map[string]any{
		"id":            e.ID,
		"action_type":   e.ActionType,
		"status":        e.Status,
		"attempts":      e.Attempts,
		"max_attempts":  e.MaxAttempts,
		"created_at":    e.CreatedAt.UTC().Format(time.RFC3339),
		"external_id":   e.ExternalID,
		"error_message": e.ErrorMessage,
	}
	if !e.LastAttemptedAt.IsZero() {
		out["last_attempted_at"] = e.LastAttemptedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func entriesJSON(entries []outbox.Entry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON(e))
	}
	return out
}
