package httpserver

import (
	"context"
	"net/http"
	"time"

	"samfw/internal/monitor/apiv1"
	"samfw/pkg/helpers"
	"samfw/pkg/logger"
	"samfw/pkg/model"

	"github.com/gin-gonic/gin"
)

// Service is the service object for httpserver
type Service struct {
	cfg    *model.Cfg
	log    *logger.Log
	server *http.Server
	apiv1  Apiv1
	gin    *gin.Engine
}

// New creates a new httpserver service
func New(ctx context.Context, cfg *model.Cfg, api *apiv1.Client, log *logger.Log) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		log:    log,
		apiv1:  api,
		server: &http.Server{Addr: cfg.Monitor.APIServer.Addr},
	}

	switch s.cfg.Common.Production {
	case true:
		gin.SetMode(gin.ReleaseMode)
	case false:
		gin.SetMode(gin.DebugMode)
	}

	s.gin = gin.New()
	s.gin.Use(gin.Recovery())
	s.server.Handler = s.gin
	s.server.ReadTimeout = time.Second * 5
	s.server.WriteTimeout = time.Second * 30
	s.server.IdleTimeout = time.Second * 90

	s.gin.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": helpers.NewError("not_found"), "data": nil})
	})

	rgRoot := s.gin.Group("/")
	s.regEndpoint(ctx, rgRoot, http.MethodGet, "health", s.endpointHealth)

	rgAPIV1 := rgRoot.Group("api/v1")
	s.regEndpoint(ctx, rgAPIV1, http.MethodGet, "/firmware", s.endpointListFirmware)
	s.regEndpoint(ctx, rgAPIV1, http.MethodGet, "/firmware/components", s.endpointListComponents)
	s.regEndpoint(ctx, rgAPIV1, http.MethodGet, "/imei/:imei", s.endpointEventsByIMEI)
	s.regEndpoint(ctx, rgAPIV1, http.MethodGet, "/monitor/status", s.endpointStatus)
	s.regEndpoint(ctx, rgAPIV1, http.MethodPost, "/monitor/stop", s.endpointStop)

	// Run http server
	go func() {
		err := s.server.ListenAndServe()
		if err != nil {
			s.log.New("http").Trace("listen_error", "error", err)
		}
	}()

	s.log.Info("started")

	return s, nil
}

func (s *Service) regEndpoint(ctx context.Context, rg *gin.RouterGroup, method, path string, handler func(context.Context, *gin.Context) (any, error)) {
	rg.Handle(method, path, func(c *gin.Context) {
		res, err := handler(ctx, c)

		status := http.StatusOK
		if err != nil {
			status = http.StatusBadRequest
		}

		c.JSON(status, gin.H{"data": res, "error": helpers.NewErrorFromError(err)})
	})
}

// Close closes the http server
func (s *Service) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Info("Stopped")
	return nil
}
