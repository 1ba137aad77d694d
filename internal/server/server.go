package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"protv/internal/intake"
	"protv/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Submitter interface {
	Submit(ctx context.Context, sub *intake.Submission) (*intake.Result, error)
}

type HealthChecker interface {
	ListCollections(ctx context.Context) ([]string, error)
}

type StoragePinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	logger  *logrus.Logger
	config  *types.Config
	intake  Submitter
	store   HealthChecker
	storage StoragePinger

	handler http.Handler
	server  *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	intake Submitter,
	store HealthChecker,
	storage StoragePinger,
) *Service {
	mux := flow.New()

	s := &Service{
		logger:  logger,
		config:  config,
		intake:  intake,
		store:   store,
		storage: storage,
	}

	s.buildRouter(mux)
	s.handler = corsPolicy().Handler(mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.ServerPort),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(config.ReadHeaderTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler, CORS included.
func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.RecoverMiddleware)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/api", s.handleRoot, http.MethodGet)
	r.HandleFunc("/api/", s.handleRoot, http.MethodGet)
	r.HandleFunc("/api/health", s.handleHealth, http.MethodGet)
	r.HandleFunc("/api/applications/submit", s.handleSubmitApplication, http.MethodPost)

	r.Handle("/metrics", promhttp.Handler(), http.MethodGet)
}

// corsPolicy lets any origin use the intake form API. The origin is echoed
// back since credentials are allowed.
func corsPolicy() *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodHead,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}
