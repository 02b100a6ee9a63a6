package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sparkops/job-analytics/internal/config"
	handlers "github.com/sparkops/job-analytics/internal/handlers/v1alpha1"
	"github.com/sparkops/job-analytics/internal/service"
	"github.com/sparkops/job-analytics/pkg/log"
	"github.com/sparkops/job-analytics/pkg/metrics"
	"github.com/sparkops/job-analytics/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg          *config.Config
	listener     net.Listener
	ingestSrv    *service.IngestService
	analyticsSrv *service.AnalyticsService
}

// New returns a new instance of the analytics API server.
func New(
	cfg *config.Config,
	listener net.Listener,
	ingestService *service.IngestService,
	analyticsService *service.AnalyticsService,
) *Server {
	return &Server{
		cfg:          cfg,
		listener:     listener,
		ingestSrv:    ingestService,
		analyticsSrv: analyticsService,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		log.Logger(zap.L(), "api"),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handlers.NewServiceHandler(s.ingestSrv, s.analyticsSrv).RegisterApi(router)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
