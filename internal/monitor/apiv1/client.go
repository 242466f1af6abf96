package apiv1

import (
	"context"
	"sync"
	"sync/atomic"

	"samfw/internal/monitor/db"
	"samfw/internal/monitor/pipeline"
	"samfw/pkg/fus"
	"samfw/pkg/logger"
	"samfw/pkg/model"
	"samfw/pkg/trace"

	"github.com/google/uuid"
)

// deviceChannel is the slice of the device service the monitor uses
type deviceChannel interface {
	ReadDeviceInfoAT(ctx context.Context, portName string) (*model.ATDeviceInfo, error)
	EnterOdinMode(ctx context.Context, portName string, sink model.Sink) (bool, error)
}

// fotaProber resolves the latest advertised firmware version
type fotaProber interface {
	LatestVersion(ctx context.Context, modelName, region string) (string, error)
}

// fusFactory opens a fresh authenticated FUS session
type fusFactory func(ctx context.Context) (*fus.Client, error)

// Monitor states surfaced by the status handler
const (
	StateWaitingDevice = "waiting_device"
	StateChecking      = "checking"
	StateDownloading   = "downloading"
	StateDecrypting    = "decrypting"
	StateExtracting    = "extracting"
	StateUpToDate      = "up_to_date"
	StateDone          = "done"
)

// MonitorStatus is the externally visible state of the worker
type MonitorStatus struct {
	SessionID string              `json:"session_id"`
	State     string              `json:"state"`
	Device    *model.ATDeviceInfo `json:"device,omitempty"`
}

// Client holds the public api object: the monitor worker plus the query
// surface the http server exposes.
type Client struct {
	cfg      *model.Cfg
	log      *logger.Log
	tp       *trace.Tracer
	store    *db.Service
	pipeline *pipeline.Service
	device   deviceChannel
	fota     fotaProber
	newFUS   fusFactory
	sink     model.Sink

	// sessionID deduplicates audit rows per application run
	sessionID string

	stopRequested atomic.Bool

	mu     sync.Mutex
	status MonitorStatus
}

// New creates a new instance of the public api
func New(ctx context.Context, store *db.Service, pipelineService *pipeline.Service, deviceService deviceChannel, fotaClient fotaProber, sink model.Sink, tp *trace.Tracer, cfg *model.Cfg, log *logger.Log) (*Client, error) {
	c := &Client{
		cfg:      cfg,
		log:      log,
		tp:       tp,
		store:    store,
		pipeline: pipelineService,
		device:   deviceService,
		fota:     fotaClient,
		sink:     sink,
		newFUS: func(ctx context.Context) (*fus.Client, error) {
			return fus.New(ctx, cfg, log.New("fus"))
		},
		sessionID: uuid.NewString(),
	}

	if c.sink == nil {
		c.sink = model.DiscardSink{}
	}
	c.setState(StateWaitingDevice, nil)

	c.log.Info("Started", "session_id", c.sessionID)

	return c, nil
}

// Close closes the client
func (c *Client) Close(ctx context.Context) error {
	c.log.Info("Stopped")
	return nil
}

// SessionID returns the process-wide audit session identifier
func (c *Client) SessionID() string {
	return c.sessionID
}

// RequestStop asks the running pipeline step to stop at its next chunk
// boundary. Detection keeps running; the flag resets on disconnect.
func (c *Client) RequestStop() {
	c.stopRequested.Store(true)
}

func (c *Client) stopped() bool {
	return c.stopRequested.Load()
}

func (c *Client) setState(state string, device *model.ATDeviceInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = MonitorStatus{
		SessionID: c.sessionID,
		State:     state,
		Device:    device,
	}
}
