package fota

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"samfw/pkg/fus"
	"samfw/pkg/helpers"
	"samfw/pkg/logger"
	"samfw/pkg/model"

	"github.com/beevik/etree"
	"github.com/jellydator/ttlcache/v3"
)

const userAgent = "curl/7.87.0"

// Client resolves the latest advertised firmware version per (model,
// region) from the FOTA cloud endpoint. Successful lookups are cached so a
// device that reconnects within the TTL does not hit the network again.
type Client struct {
	cfg *model.Cfg
	log *logger.Log

	httpClient *http.Client
	cache      *ttlcache.Cache[string, string]
}

// New creates a new fota client
func New(ctx context.Context, cfg *model.Cfg, log *logger.Log) (*Client, error) {
	c := &Client{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: ttlcache.New(
			ttlcache.WithTTL[string, string](time.Duration(cfg.FOTA.CacheSeconds)*time.Second),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}

	go c.cache.Start()

	c.log.Info("Started")

	return c, nil
}

// Close stops the cache janitor
func (c *Client) Close(ctx context.Context) error {
	c.cache.Stop()
	c.log.Info("Stopped")
	return nil
}

// LatestVersion returns the normalized latest firmware version for a model
// and region.
func (c *Client) LatestVersion(ctx context.Context, modelName, region string) (string, error) {
	cacheKey := fmt.Sprintf("%s/%s", region, modelName)
	if item := c.cache.Get(cacheKey); item != nil {
		return item.Value(), nil
	}

	url := fmt.Sprintf("%s/firmware/%s/%s/version.xml", c.cfg.FOTA.BaseURL, region, modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", helpers.ErrModelOrRegionNotFound.WithDetails(map[string]any{"model": modelName, "region": region})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", helpers.ErrFOTAParsing.WithDetails(fmt.Sprintf("http status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return "", helpers.ErrFOTAParsing.WithDetails("version.xml")
	}

	latest := doc.FindElement("//firmware/version/latest")
	if latest == nil || latest.Text() == "" {
		return "", helpers.ErrNoFirmware.WithDetails(map[string]any{"model": modelName, "region": region})
	}

	version := fus.NormalizeVercode(latest.Text())
	c.cache.Set(cacheKey, version, ttlcache.DefaultTTL)

	return version, nil
}
