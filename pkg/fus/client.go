package fus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"samfw/pkg/fuscrypto"
	"samfw/pkg/helpers"
	"samfw/pkg/logger"
	"samfw/pkg/model"

	"github.com/beevik/etree"
)

const userAgent = "Kies2.0_FUS"

// FUS endpoint paths
const (
	pathGenerateNonce = "NF_DownloadGenerateNonce.do"
	pathBinaryInform  = "NF_DownloadBinaryInform.do"
	pathBinaryInit    = "NF_DownloadBinaryInitForMass.do"
	pathBinaryForMass = "NF_DownloadBinaryForMass.do"
)

// Client talks to the Samsung Firmware Update Service. Each instance owns
// one authenticated session: the server rotates the nonce on every response
// and the client keeps signature and JSESSIONID in step. Not safe for
// concurrent use; the pipeline creates one client per run.
type Client struct {
	cfg *model.Cfg
	log *logger.Log

	httpClient *http.Client

	encNonce  string
	nonce     string
	signature string
	sessionID string
}

// New creates a client and bootstraps the session by requesting a nonce
func New(ctx context.Context, cfg *model.Cfg, log *logger.Log) (*Client, error) {
	c := &Client{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.FUS.RequestTimeout) * time.Second,
		},
	}

	if _, err := c.makeReq(ctx, pathGenerateNonce, nil); err != nil {
		return nil, err
	}

	return c, nil
}

// Nonce returns the current plaintext nonce
func (c *Client) Nonce() string {
	return c.nonce
}

func (c *Client) authorization(withServerNonce bool) string {
	nonce := ""
	if withServerNonce {
		nonce = c.encNonce
	}
	return fmt.Sprintf(`FUS nonce="%s", signature="%s", nc="", type="", realm="", newauth="1"`, nonce, c.signature)
}

// rotate inspects a response for a fresh NONCE header and JSESSIONID cookie
func (c *Client) rotate(resp *http.Response) error {
	if encNonce := resp.Header.Get("NONCE"); encNonce != "" {
		nonce, err := fuscrypto.DecryptNonce(encNonce)
		if err != nil {
			return err
		}
		signature, err := fuscrypto.MakeSignature(nonce)
		if err != nil {
			return err
		}
		c.encNonce = encNonce
		c.nonce = nonce
		c.signature = signature
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "JSESSIONID" {
			c.sessionID = cookie.Value
		}
	}
	return nil
}

func (c *Client) makeReq(ctx context.Context, path string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.cfg.FUS.BaseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authorization(false))
	req.Header.Set("User-Agent", userAgent)
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: c.sessionID})
	}

	c.log.Debug("FUS request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.rotate(resp); err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, helpers.ErrFUSHTTP.WithDetails(map[string]any{"status": resp.StatusCode, "path": path})
	}

	return respBody, nil
}

func (c *Client) postXML(ctx context.Context, path string, payload []byte) (*etree.Document, error) {
	body, err := c.makeReq(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, helpers.ErrFUSMissingField.WithDetails(fmt.Sprintf("malformed response XML: %v", err))
	}
	return doc, nil
}

// Inform asks the server for firmware metadata
func (c *Client) Inform(ctx context.Context, payload []byte) (*etree.Document, error) {
	return c.postXML(ctx, pathBinaryInform, payload)
}

// Init authorizes the subsequent binary download
func (c *Client) Init(ctx context.Context, payload []byte) (*etree.Document, error) {
	return c.postXML(ctx, pathBinaryInit, payload)
}

// Stream opens a ranged download of a remote file from the cloud endpoint.
// The caller owns the response body.
func (c *Client) Stream(ctx context.Context, remotePath string, start int64) (*http.Response, error) {
	streamURL := fmt.Sprintf("%s/%s?file=%s", c.cfg.FUS.CloudURL, pathBinaryForMass, url.QueryEscape(remotePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authorization(true))
	req.Header.Set("User-Agent", userAgent)
	if start > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", start))
	}
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: c.sessionID})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, helpers.ErrDownloadHTTP.WithDetails(map[string]any{"status": resp.StatusCode})
	}
	return resp, nil
}
