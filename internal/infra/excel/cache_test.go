package excel

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func workbookBytes(t *testing.T, cell, value string) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", cell, value))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func newTestCache(t *testing.T, url string, ttl time.Duration) *Cache {
	t.Helper()
	c := NewCache(testLogger(), url, ttl)
	c.sleep = func(time.Duration) {}
	return c
}

func TestWorkbookDownloadsOnceWithinTTL(t *testing.T) {
	var hits atomic.Int32
	data := workbookBytes(t, "A1", "hola")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	c := newTestCache(t, srv.URL, time.Hour)
	ctx := context.Background()

	wb, err := c.Workbook(ctx)
	require.NoError(t, err)
	v, err := wb.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "hola", v)

	_, err = c.Workbook(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestWorkbookRefreshesAfterTTL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(workbookBytes(t, "A1", "v"))
	}))
	defer srv.Close()

	c := newTestCache(t, srv.URL, time.Minute)
	fake := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fake }

	ctx := context.Background()
	_, err := c.Workbook(ctx)
	require.NoError(t, err)

	fake = fake.Add(2 * time.Minute)
	_, err = c.Workbook(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestWorkbookRetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestCache(t, srv.URL, time.Hour)
	_, err := c.Workbook(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, int32(maxRetries), hits.Load())
}

func TestCorruptDownloadKeepsPreviousSnapshot(t *testing.T) {
	corrupt := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if corrupt.Load() {
			_, _ = w.Write([]byte("esto no es un xlsx"))
			return
		}
		_, _ = w.Write(workbookBytes(t, "A1", "bueno"))
	}))
	defer srv.Close()

	c := newTestCache(t, srv.URL, time.Minute)
	fake := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fake }

	ctx := context.Background()
	_, err := c.Workbook(ctx)
	require.NoError(t, err)

	corrupt.Store(true)
	fake = fake.Add(2 * time.Minute)
	_, err = c.Workbook(ctx)
	assert.ErrorIs(t, err, ErrCorruptSource)

	// el snapshot viejo sigue disponible tal cual quedó
	c.mu.RLock()
	defer c.mu.RUnlock()
	require.NotNil(t, c.wb)
	v, err := c.wb.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "bueno", v)
}

func TestSetSourceURL(t *testing.T) {
	c := newTestCache(t, "http://ejemplo/viejo.xlsx", time.Hour)

	assert.ErrorIs(t, c.SetSourceURL(""), ErrInvalidLocation)
	assert.ErrorIs(t, c.SetSourceURL("   "), ErrInvalidLocation)

	require.NoError(t, c.SetSourceURL("  http://ejemplo/nuevo.xlsx  "))
	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Equal(t, "http://ejemplo/nuevo.xlsx", c.url)
	assert.Nil(t, c.wb)
}
