package apiv1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"samfw/pkg/fus"
	"samfw/pkg/helpers"
	"samfw/pkg/model"
)

// backoff after a transport-level detection error
const errorBackoff = 2 * time.Second

// Run executes the monitor loop until the context is cancelled: detect a
// device over AT, check FOTA, acquire and prepare the firmware, then wait
// for disconnect before accepting the next device. Transport errors reset
// the connection state and never end the loop.
func (c *Client) Run(ctx context.Context) error {
	stats, err := c.pipeline.Reconcile(ctx, c.sink)
	if err != nil {
		return err
	}
	c.log.Info("Repository reconciled",
		"total", stats.TotalRecords,
		"missing", stats.MissingEncrypted,
		"records_deleted", stats.RecordsDeleted,
		"decrypted_deleted", stats.DecryptedDeleted,
	)

	connected := false
	lastModel := ""

	for {
		if err := sleepCtx(ctx, time.Duration(c.cfg.Monitor.PollInterval)*time.Second); err != nil {
			return nil
		}

		device, err := c.device.ReadDeviceInfoAT(ctx, "")
		if err != nil {
			switch {
			case errors.Is(err, helpers.ErrDeviceNotFound):
				if connected {
					c.log.Info("Device disconnected", "model", lastModel)
					connected = false
					lastModel = ""
					c.stopRequested.Store(false)
					c.setState(StateWaitingDevice, nil)
					c.sink.Status("Device disconnected. Waiting for new device")
					c.sink.Message("Waiting for device", model.SeverityInfo)
				}
			default:
				// Transport errors are recovered locally: the device may be
				// mid-enumeration or rebooting.
				c.log.Debug("Detection error", "error", err.Error())
				connected = false
				lastModel = ""
				c.setState(StateWaitingDevice, nil)
				c.sink.Status("Device error detected - Retrying detection")
				sleepCtx(ctx, errorBackoff)
			}
			continue
		}

		if connected {
			// Same device still attached; wait for disconnect.
			continue
		}

		connected = true
		lastModel = device.Model
		c.log.Info("Device connected", "model", device.Model, "csc", device.SalesCode, "firmware", device.FirmwareVersion)
		c.log.Info("Device identity", "imei", device.IMEI, "sn", device.SerialNumber, "lock", device.LockStatus)

		c.processDevice(ctx, device)

		c.sink.Status("Waiting for device disconnect")
	}
}

// processDevice runs one full check/acquire/prepare cycle for a freshly
// detected device. Every outcome leaves the loop alive.
func (c *Client) processDevice(ctx context.Context, device *model.ATDeviceInfo) {
	ctx, span := c.tp.Start(ctx, "apiv1:process_device")
	defer span.End()

	c.setState(StateChecking, device)
	c.sink.Status("Device detected! Checking firmware...")

	if device.IMEI != "" && !fus.ValidateIMEI(device.IMEI) {
		c.log.Info("Device reported a malformed IMEI", "imei", device.IMEI)
	}

	if !c.cscAccepted(device.SalesCode) {
		c.log.Info("Device rejected by CSC filter", "model", device.Model, "csc", device.SalesCode)
		c.auditEvent(ctx, device, "", model.StatusFUSUnknown)
		c.setState(StateWaitingDevice, device)
		c.sink.Status("Device filtered by CSC")
		c.sink.Message("CSC Filtered", model.SeverityWarning)
		return
	}

	latest, err := c.fota.LatestVersion(ctx, device.Model, device.SalesCode)
	if err != nil {
		c.auditEvent(ctx, device, "", model.StatusFUSUnknown)
		c.handleFOTAError(err, device)
		return
	}
	c.log.Info("FOTA returned version", "version", latest)

	c.auditEvent(ctx, device, latest, model.StatusFUSUnknown)

	cached, err := c.isCached(ctx, latest)
	if err != nil {
		c.sink.Message("Repository error", model.SeverityError)
		c.log.Error(err, "Repository lookup failed")
		return
	}

	if latest == device.FirmwareVersion {
		c.setState(StateUpToDate, device)
		msg := fmt.Sprintf("Firmware already latest version: %s", latest)
		c.log.Info(msg)
		c.sink.Status("Device connected")
		c.sink.Message(msg, model.SeveritySuccess)
		return
	}

	if cached {
		c.log.Info("Firmware found in repository", "version", latest)
		c.sink.Message(fmt.Sprintf("Firmware %s found in repository. Preparing...", latest), model.SeverityInfo)
		c.prepareFirmware(ctx, device, latest)
		return
	}

	c.downloadFirmware(ctx, device, latest)
}

// cscAccepted applies the configured CSC filter; an empty filter accepts
// everything.
func (c *Client) cscAccepted(csc string) bool {
	if len(c.cfg.Monitor.CSCFilter) == 0 {
		return true
	}
	deviceCSC := strings.ToUpper(strings.TrimSpace(csc))
	if deviceCSC == "" {
		return true
	}
	for _, allowed := range c.cfg.Monitor.CSCFilter {
		if strings.ToUpper(strings.TrimSpace(allowed)) == deviceCSC {
			return true
		}
	}
	return false
}

// isCached reports whether the firmware row exists with downloaded=1. The
// flag is authoritative; the encrypted file may have been purged after a
// successful extraction.
func (c *Client) isCached(ctx context.Context, versionCode string) (bool, error) {
	rec, err := c.store.FindFirmware(ctx, versionCode)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.Downloaded, nil
}

// auditEvent upserts the audit row of this (session, device) pair
func (c *Client) auditEvent(ctx context.Context, device *model.ATDeviceInfo, fotaVersion, statusFUS string) {
	_, err := c.store.UpsertIMEIEvent(ctx, &model.IMEIEvent{
		SessionID:    c.sessionID,
		IMEI:         device.IMEI,
		Model:        device.Model,
		CSC:          device.SalesCode,
		VersionCode:  device.FirmwareVersion,
		FOTAVersion:  fotaVersion,
		SerialNumber: device.SerialNumber,
		LockStatus:   device.LockStatus,
		AID:          device.AID,
		CC:           device.CC,
		StatusFUS:    statusFUS,
	})
	if err != nil {
		c.log.Error(err, "Audit upsert failed", "imei", device.IMEI)
	}
}

// downloadFirmware performs the FUS exchange and the full
// download/decrypt/extract pipeline.
func (c *Client) downloadFirmware(ctx context.Context, device *model.ATDeviceInfo, latest string) {
	c.setState(StateDownloading, device)
	c.sink.Status("Device connected - Downloading firmware")
	c.log.Info("Downloading firmware", "latest", latest, "current", device.FirmwareVersion)

	fusClient, err := c.newFUS(ctx)
	if err != nil {
		c.auditEvent(ctx, device, latest, model.StatusFUSError)
		c.sink.Message("FUS session could not be established", model.SeverityError)
		c.log.Error(err, "FUS bootstrap failed")
		return
	}

	version := fus.NormalizeVercode(latest)

	informPayload, err := fus.BuildBinaryInform(version, device.Model, device.SalesCode, device.IMEI, fusClient.Nonce())
	if err != nil {
		c.auditEvent(ctx, device, latest, model.StatusFUSError)
		c.sink.Message("FUS request could not be built", model.SeverityError)
		c.log.Error(err, "Inform payload build failed")
		return
	}

	informDoc, err := fusClient.Inform(ctx, informPayload)
	if err != nil {
		c.auditEvent(ctx, device, latest, model.StatusFUSError)
		c.handleFUSError(err)
		return
	}
	info, err := fus.ParseInform(informDoc)
	if err != nil {
		c.auditEvent(ctx, device, latest, model.StatusFUSError)
		c.handleFUSError(err)
		return
	}

	initPayload, err := fus.BuildBinaryInit(info.Filename, fusClient.Nonce())
	if err != nil {
		c.auditEvent(ctx, device, latest, model.StatusFUSError)
		c.sink.Message("FUS request could not be built", model.SeverityError)
		c.log.Error(err, "Init payload build failed")
		return
	}
	if _, err := fusClient.Init(ctx, initPayload); err != nil {
		c.auditEvent(ctx, device, latest, model.StatusFUSError)
		c.handleFUSError(err)
		return
	}

	if err := c.pipeline.Download(ctx, fusClient, info, c.cfg.Monitor.Resume, c.sink, c.stopped); err != nil {
		if errors.Is(err, helpers.ErrCancelled) {
			c.handleCancelled()
			return
		}
		c.auditEvent(ctx, device, latest, model.StatusFUSError)
		c.sink.Message(fmt.Sprintf("Download failed: %v", err), model.SeverityError)
		c.log.Error(err, "Download failed")
		return
	}

	if err := c.store.UpsertFirmware(ctx, &model.FirmwareRecord{
		VersionCode:       version,
		Filename:          info.Filename,
		Path:              info.Path,
		SizeBytes:         info.SizeBytes,
		LogicValueFactory: info.LogicValueFactory,
		LatestFWVersion:   info.LatestFWVersion,
		Downloaded:        true,
	}); err != nil {
		c.sink.Message("Repository error", model.SeverityError)
		c.log.Error(err, "Firmware upsert failed")
		return
	}

	c.auditEvent(ctx, device, latest, model.StatusFUSOK)
	c.log.Info("Download complete", "version", version)

	c.prepareFirmware(ctx, device, version)
}

// prepareFirmware decrypts and extracts a downloaded firmware
func (c *Client) prepareFirmware(ctx context.Context, device *model.ATDeviceInfo, versionCode string) {
	rec, err := c.store.FindFirmware(ctx, versionCode)
	if err != nil || rec == nil {
		c.sink.Message("Firmware not found in repository", model.SeverityError)
		return
	}

	c.setState(StateDecrypting, device)
	c.sink.Status("Device connected - Decrypting firmware")

	decPath, err := c.pipeline.Decrypt(ctx, rec, c.sink, c.stopped)
	if err != nil {
		if errors.Is(err, helpers.ErrCancelled) {
			c.handleCancelled()
			return
		}
		c.sink.Message(fmt.Sprintf("Decrypt failed: %v", err), model.SeverityError)
		c.log.Error(err, "Decrypt failed", "version", versionCode)
		return
	}

	c.setState(StateExtracting, device)
	c.sink.Status("Device connected - Extracting firmware")

	unzipDir, err := c.pipeline.Extract(ctx, decPath, versionCode, c.sink, c.stopped)
	if err != nil {
		if errors.Is(err, helpers.ErrCancelled) {
			c.handleCancelled()
			return
		}
		c.sink.Message(fmt.Sprintf("Extract failed: %v", err), model.SeverityError)
		c.log.Error(err, "Extract failed", "version", versionCode)
		return
	}

	c.auditEvent(ctx, device, versionCode, model.StatusFUSOK)
	c.setState(StateDone, device)
	c.log.Info("Firmware ready", "version", versionCode, "dir", unzipDir)
	c.sink.Status("Device connected")
	c.sink.Message(fmt.Sprintf("Firmware ready! Version: %s", versionCode), model.SeveritySuccess)

	if c.cfg.Monitor.AutoFusMode {
		c.enterOdinAfterExtract(ctx)
	}
}

// enterOdinAfterExtract drives the device into download mode once its
// firmware is prepared.
func (c *Client) enterOdinAfterExtract(ctx context.Context) {
	c.sink.Status("Device connected - Entering download mode")
	c.sink.Message("Sending download mode command...", model.SeverityInfo)

	ok, err := c.device.EnterOdinMode(ctx, "", c.sink)
	if err != nil {
		c.sink.Message(fmt.Sprintf("Error entering download mode: %v", err), model.SeverityError)
		c.log.Error(err, "Odin transition failed")
		return
	}
	if ok {
		c.sink.Status("Device in download mode")
		c.sink.Message("Device successfully entered download mode! Ready for flashing", model.SeveritySuccess)
		return
	}
	c.sink.Message("Timeout waiting for download mode. Device may not support AT+FUS?", model.SeverityWarning)
}

func (c *Client) handleCancelled() {
	c.log.Info("Task stopped")
	c.sink.Status("Device connected")
	c.sink.Message("Task stopped", model.SeverityWarning)
}

// handleFOTAError maps FOTA failures onto user-visible messages
func (c *Client) handleFOTAError(err error, device *model.ATDeviceInfo) {
	switch {
	case errors.Is(err, helpers.ErrModelOrRegionNotFound):
		c.log.Info("Model or CSC not recognized by FOTA", "model", device.Model, "csc", device.SalesCode)
		c.sink.Status("Device connected")
		c.sink.Message("Model or CSC not recognized by FOTA", model.SeverityWarning)
	case errors.Is(err, helpers.ErrNoFirmware):
		c.log.Info("No firmware available from FOTA", "model", device.Model, "csc", device.SalesCode)
		c.sink.Status("Device connected")
		c.sink.Message("No firmware available from FOTA", model.SeverityWarning)
	default:
		c.log.Error(err, "FOTA query failed")
		c.sink.Status("Device connected")
		c.sink.Message(fmt.Sprintf("FOTA query failed: %v", err), model.SeverityError)
	}
}

// handleFUSError maps FUS failures onto user-visible messages. A body
// status of 400 means the build is only served over the air; 408 flags bad
// device identity.
func (c *Client) handleFUSError(err error) {
	c.sink.Status("Device connected")

	switch fus.BadStatusCode(err) {
	case 400:
		c.log.Info("FUS status 400: firmware not served")
		c.sink.Message("Please update via OTA (Over-The-Air)", model.SeverityWarning)
	case 408:
		c.log.Error(err, "FUS status 408")
		c.sink.Message("Invalid model, CSC, or IMEI. Please check device information", model.SeverityError)
	case 0:
		c.log.Error(err, "FUS exchange failed")
		c.sink.Message(fmt.Sprintf("FUS server error: %v", err), model.SeverityError)
	default:
		c.log.Error(err, "FUS bad status")
		c.sink.Message(fmt.Sprintf("FUS server error: %v", err), model.SeverityError)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
