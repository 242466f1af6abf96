package httpserver

import (
	"context"

	"samfw/internal/monitor/apiv1"
)

// Apiv1 is the surface of the api the http server binds to
type Apiv1 interface {
	ListFirmware(ctx context.Context, req *apiv1.ListFirmwareRequest) (*apiv1.ListFirmwareReply, error)
	ListComponents(ctx context.Context, req *apiv1.ListComponentsRequest) (*apiv1.ListComponentsReply, error)
	EventsByIMEI(ctx context.Context, req *apiv1.EventsByIMEIRequest) (*apiv1.EventsByIMEIReply, error)
	Status(ctx context.Context) (*apiv1.MonitorStatus, error)
	Stop(ctx context.Context) (*apiv1.MonitorStatus, error)
	Health(ctx context.Context) (map[string]any, error)
}
