package apiv1

import (
	"context"

	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

// ListFirmwareRequest is the query for the firmware listing
type ListFirmwareRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// ListFirmwareReply lists repository firmware rows
type ListFirmwareReply struct {
	Firmware []model.FirmwareRecord `json:"firmware"`
}

// ListFirmware returns firmware rows, newest first
func (c *Client) ListFirmware(ctx context.Context, req *ListFirmwareRequest) (*ListFirmwareReply, error) {
	ctx, span := c.tp.Start(ctx, "apiv1:list_firmware")
	defer span.End()

	records, err := c.store.ListFirmware(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	return &ListFirmwareReply{Firmware: records}, nil
}

// ListComponentsRequest identifies a firmware by its version code
type ListComponentsRequest struct {
	VersionCode string `form:"version_code" binding:"required"`
}

// ListComponentsReply lists component checksums of one firmware
type ListComponentsReply struct {
	Components []model.ComponentRecord `json:"components"`
}

// ListComponents returns the component checksums of a firmware version
func (c *Client) ListComponents(ctx context.Context, req *ListComponentsRequest) (*ListComponentsReply, error) {
	ctx, span := c.tp.Start(ctx, "apiv1:list_components")
	defer span.End()

	components, err := c.store.ListComponents(ctx, req.VersionCode)
	if err != nil {
		return nil, err
	}
	return &ListComponentsReply{Components: components}, nil
}

// EventsByIMEIRequest queries the audit log for one IMEI
type EventsByIMEIRequest struct {
	IMEI   string `uri:"imei" binding:"required"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// EventsByIMEIReply lists audit rows
type EventsByIMEIReply struct {
	Events []model.IMEIEvent `json:"events"`
}

// EventsByIMEI returns audit rows for a device, newest first
func (c *Client) EventsByIMEI(ctx context.Context, req *EventsByIMEIRequest) (*EventsByIMEIReply, error) {
	ctx, span := c.tp.Start(ctx, "apiv1:events_by_imei")
	defer span.End()

	events, err := c.store.ListEventsByIMEI(ctx, req.IMEI, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}
	return &EventsByIMEIReply{Events: events}, nil
}

// Status returns the monitor state
func (c *Client) Status(ctx context.Context) (*MonitorStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.status
	return &status, nil
}

// Stop requests cancellation of the running pipeline step
func (c *Client) Stop(ctx context.Context) (*MonitorStatus, error) {
	c.RequestStop()
	return c.Status(ctx)
}

// Health is a trivial liveness probe that also verifies the store
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	if !c.store.IsHealthy(ctx) {
		return nil, helpers.ErrIntegrityFailure
	}
	return map[string]any{"status": "ok", "session_id": c.sessionID}, nil
}
