package httpserver

import (
	"context"

	"samfw/internal/monitor/apiv1"

	"github.com/gin-gonic/gin"
)

func (s *Service) endpointHealth(ctx context.Context, c *gin.Context) (any, error) {
	return s.apiv1.Health(ctx)
}

func (s *Service) endpointListFirmware(ctx context.Context, c *gin.Context) (any, error) {
	request := &apiv1.ListFirmwareRequest{}
	if err := c.ShouldBindQuery(request); err != nil {
		return nil, err
	}
	return s.apiv1.ListFirmware(ctx, request)
}

func (s *Service) endpointListComponents(ctx context.Context, c *gin.Context) (any, error) {
	request := &apiv1.ListComponentsRequest{}
	if err := c.ShouldBindQuery(request); err != nil {
		return nil, err
	}
	return s.apiv1.ListComponents(ctx, request)
}

func (s *Service) endpointEventsByIMEI(ctx context.Context, c *gin.Context) (any, error) {
	request := &apiv1.EventsByIMEIRequest{}
	if err := c.ShouldBindUri(request); err != nil {
		return nil, err
	}
	if err := c.ShouldBindQuery(request); err != nil {
		return nil, err
	}
	return s.apiv1.EventsByIMEI(ctx, request)
}

func (s *Service) endpointStatus(ctx context.Context, c *gin.Context) (any, error) {
	return s.apiv1.Status(ctx)
}

func (s *Service) endpointStop(ctx context.Context, c *gin.Context) (any, error) {
	return s.apiv1.Stop(ctx)
}
