package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
	"github.com/sparkops/job-analytics/internal/handlers/validator"
	"github.com/sparkops/job-analytics/internal/service"
)

type ServiceHandler struct {
	ingestSrv    *service.IngestService
	analyticsSrv *service.AnalyticsService
	validator    *validator.Validator
}

func NewServiceHandler(ingestService *service.IngestService, analyticsService *service.AnalyticsService) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewEventValidationRules()...)

	return &ServiceHandler{
		ingestSrv:    ingestService,
		analyticsSrv: analyticsService,
		validator:    v,
	}
}

func (h *ServiceHandler) RegisterApi(router chi.Router) {
	router.Post("/api/v1/events", h.IngestEvent)
	router.Get("/api/v1/analytics/jobs/{id}", h.GetJobAnalytics)
	router.Get("/api/v1/analytics/summary", h.GetDailySummary)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message})
}
