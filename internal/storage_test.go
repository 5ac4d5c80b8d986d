package internal

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startStorageDaemon(t *testing.T, store Storage) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "db.sock")
	l, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	srv := &http.Server{Handler: NewStorageHandler(store, discardLogger)}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })
	return socketPath
}

func TestSocketStorage_RoundTrip(t *testing.T) {
	mem := NewMemStorage()
	store := NewSocketStorage(startStorageDaemon(t, mem))
	ctx := context.Background()

	seedPayments(t, store)
	assert.Equal(t, 4, mem.Len())

	s, err := store.GetSummary(ctx, nil, nil)
	require.NoError(t, err)
	assertSummary(t, s, "default", 3, "31.5")
	assertSummary(t, s, "fallback", 1, "5.25")

	s, err = store.GetSummary(ctx, timePtr(base.Add(time.Second)), timePtr(base.Add(2*time.Second)))
	require.NoError(t, err)
	assertSummary(t, s, "default", 1, "20.5")
	assertSummary(t, s, "fallback", 1, "5.25")

	require.NoError(t, store.CleanUp(ctx))
	assert.Equal(t, 0, mem.Len())
}

func TestSocketStorage_SaveFailsWithoutDaemon(t *testing.T) {
	store := NewSocketStorage(filepath.Join(t.TempDir(), "missing.sock"))

	err := store.Save(context.Background(), ProcessedPayment{})

	assert.Error(t, err)
}

func TestStorageHandler_RejectsBadTime(t *testing.T) {
	socketPath := startStorageDaemon(t, NewMemStorage())
	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}}

	resp, err := client.Get(summaryUrl + "?from=yesterday")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
