package v1alpha1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sparkops/job-analytics/internal/service"
)

// (GET /api/v1/analytics/jobs/{id})
func (h *ServiceHandler) GetJobAnalytics(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "job id must be an integer")
		return
	}

	analytics, err := h.analyticsSrv.GetJobAnalytics(r.Context(), jobID)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, "failed to load job analytics")
		}
		return
	}

	render.JSON(w, r, analytics)
}

// (GET /api/v1/analytics/summary?date=YYYY-MM-DD)
func (h *ServiceHandler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	summary, err := h.analyticsSrv.GetDailySummary(r.Context(), date)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "failed to compute daily summary")
		return
	}

	render.JSON(w, r, summary)
}
