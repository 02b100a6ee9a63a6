package v1alpha1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/handlers/v1alpha1/mappers"
	"github.com/sparkops/job-analytics/internal/service"
)

// (POST /api/v1/events)
func (h *ServiceHandler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var event api.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.validator.Struct(event); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.EventIngestResult{Status: api.IngestStatusRejected, Message: err.Error()})
		return
	}

	outcome, err := h.ingestSrv.Ingest(r.Context(), event)
	if err != nil {
		switch err.(type) {
		case *service.ErrEventMalformed:
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, api.EventIngestResult{Status: api.IngestStatusRejected, Message: err.Error()})
		default:
			renderError(w, r, http.StatusInternalServerError, "failed to ingest event")
		}
		return
	}

	status := http.StatusCreated
	if outcome.Status == service.IngestStatusDuplicate {
		status = http.StatusOK
	}
	render.Status(r, status)
	render.JSON(w, r, mappers.EventIngestResultFromOutcome(outcome))
}
