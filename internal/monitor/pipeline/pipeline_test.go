package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"samfw/internal/monitor/db"
	"samfw/pkg/fus"
	"samfw/pkg/fuscrypto"
	"samfw/pkg/logger"
	"samfw/pkg/model"
	"samfw/pkg/trace"

	"github.com/stretchr/testify/require"
)

const testVersion = "A146PXXS6CXK3/A146POXM6CXK3/A146PXXS6CXK3/A146PXXS6CXK3"

type testEnv struct {
	cfg      *model.Cfg
	store    *db.Service
	pipeline *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := &model.Cfg{
		Monitor: model.Monitor{
			DataDir: t.TempDir(),
			Resume:  true,
		},
	}

	log := logger.NewSimple("test-pipeline")
	tracer, err := trace.NewForTesting(ctx, "pipeline", log)
	require.NoError(t, err)

	store, err := db.New(ctx, cfg, tracer, log.New("db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	p, err := New(ctx, cfg, store, tracer, log.New("pipeline"))
	require.NoError(t, err)

	return &testEnv{cfg: cfg, store: store, pipeline: p}
}

// newFUSServer serves the nonce bootstrap plus ranged downloads of payload
func newFUSServer(t *testing.T, payload []byte) (*fus.Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/NF_DownloadGenerateNonce.do", func(w http.ResponseWriter, r *http.Request) {
		enc, err := fuscrypto.EncryptNonce("A1B2C3D4E5F6G7H8")
		require.NoError(t, err)
		w.Header().Set("NONCE", enc)
	})
	mux.HandleFunc("/NF_DownloadBinaryForMass.do", func(w http.ResponseWriter, r *http.Request) {
		start := 0
		if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
			value := strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-")
			parsed, err := strconv.Atoi(value)
			require.NoError(t, err)
			start = parsed
			w.WriteHeader(http.StatusPartialContent)
		}
		w.Write(payload[start:])
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := &model.Cfg{
		FUS: model.FUS{BaseURL: server.URL, CloudURL: server.URL, RequestTimeout: 10},
	}
	client, err := fus.New(context.Background(), cfg, logger.NewSimple("test-fus"))
	require.NoError(t, err)

	return client, server
}
