package fota

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"samfw/pkg/helpers"
	"samfw/pkg/logger"
	"samfw/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &model.Cfg{
		FOTA: model.FOTA{
			BaseURL:      server.URL,
			CacheSeconds: 60,
		},
	}
	client, err := New(context.Background(), cfg, logger.NewSimple("test-fota"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(context.Background()) })
	return client
}

func versionXML(latest string) string {
	return fmt.Sprintf(
		`<versioninfo><firmware><version><latest>%s</latest><upgrade/></version></firmware></versioninfo>`,
		latest,
	)
}

func TestLatestVersion(t *testing.T) {
	var gotPath, gotUA string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, versionXML("A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3"))
	}))

	version, err := client.LatestVersion(context.Background(), "SM-A146P", "EUX")
	require.NoError(t, err)

	// three-part versions are normalized to four
	assert.Equal(t, "A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3", version)
	assert.Equal(t, "/firmware/EUX/SM-A146P/version.xml", gotPath)
	assert.Equal(t, "curl/7.87.0", gotUA)
}

func TestLatestVersionCaches(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, versionXML("A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3"))
	}))

	for range 3 {
		_, err := client.LatestVersion(context.Background(), "SM-A146P", "EUX")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestLatestVersionModelNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.LatestVersion(context.Background(), "SM-NOPE", "ZZZ")
	assert.ErrorIs(t, err, helpers.ErrModelOrRegionNotFound)
}

func TestLatestVersionNoFirmware(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<versioninfo><firmware><version></version></firmware></versioninfo>`)
	}))

	_, err := client.LatestVersion(context.Background(), "SM-A146P", "EUX")
	assert.ErrorIs(t, err, helpers.ErrNoFirmware)
}

func TestLatestVersionMalformedXML(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not xml <<<")
	}))

	_, err := client.LatestVersion(context.Background(), "SM-A146P", "EUX")
	assert.ErrorIs(t, err, helpers.ErrFOTAParsing)
}
