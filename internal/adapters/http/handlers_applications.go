package web

import (
	"errors"
	"log/slog"
	"net/http"

	"divecenter/internal/adapters/backend"
	"divecenter/internal/application/orchestrators"
	"divecenter/internal/application/projections"
	"divecenter/internal/domain/application"
)

type statusUpdateRequest struct {
	Status string `json:"status"`
	Resend bool   `json:"resend"`
}

// handleUpdateApplicationStatus is the certificate pipeline trigger:
// POST /certification-applications/{id}/status updates the backend status and,
// on a completed transition, renders and emails the certificate.
func handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid application id")
		return
	}

	var req statusUpdateRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := orchestrators.ExecuteUpdateApplicationStatus(r.Context(), orchestrators.UpdateApplicationStatusInput{
		ApplicationID: id,
		Status:        req.Status,
		Resend:        req.Resend,
	}, orchestrators.UpdateApplicationStatusDeps{
		Backend:     backendClient,
		Certificate: certDeps,
	})
	if err != nil {
		writeStatusUpdateError(w, id, err)
		return
	}

	message := "application status updated"
	switch {
	case result.CertificateIssued:
		message = "application status updated and certificate issued"
	case result.AlreadyIssued:
		message = "application status updated; certificate was already issued"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     message,
		"application": applicationJSON(result.Application),
	})
}

// writeStatusUpdateError maps pipeline failures onto the response contract:
// the status change may already be committed on the backend when a later
// stage fails, so the body says which stage broke.
func writeStatusUpdateError(w http.ResponseWriter, id int64, err error) {
	var backendErr *backend.Error

	switch {
	case errors.Is(err, application.ErrInvalidStatus):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"error":   "invalid status",
			"details": err.Error(),
		})
	case errors.Is(err, application.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "application not found",
			"details": err.Error(),
		})
	case errors.Is(err, orchestrators.ErrPartialApplicationData):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "application data incomplete",
			"details": err.Error(),
		})
	case errors.As(err, &backendErr):
		slog.Error("cert_event", "event", "pipeline_failed", "application_id", id, "stage", "backend", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "backend update failed",
			"details": backendErr.Message,
		})
	default:
		slog.Error("cert_event", "event", "pipeline_failed", "application_id", id, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "certificate pipeline failed",
			"details": err.Error(),
		})
	}
}

// handleListApplications serves GET /certification-applications with optional
// ?status= and ?search= filters.
func handleListApplications(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetApplicationList(r.Context(), projections.GetApplicationListQuery{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}, projections.GetApplicationListDeps{Backend: backendClient})
	if err != nil {
		if errors.Is(err, application.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(result.Applications))
	for _, app := range result.Applications {
		out = append(out, applicationJSON(app))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "applications retrieved",
		"data":    out,
		"total":   result.Total,
	})
}

func applicationJSON(app application.Application) map[string]any {
	return map[string]any{
		"id":              app.ID,
		"applicant_name":  app.ApplicantName,
		"applicant_email": app.ApplicantEmail,
		"course_name":     app.CourseName,
		"completion_date": app.CompletionDate,
		"status":          app.Status,
	}
}
