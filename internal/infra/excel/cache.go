package excel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ijcv/chilo-bot/internal/infra/metrics"
)

var (
	// ErrSourceUnavailable: se agotaron los reintentos de descarga.
	ErrSourceUnavailable = errors.New("excel: fuente no disponible")
	// ErrCorruptSource: el archivo descargado no es un .xlsx válido.
	ErrCorruptSource = errors.New("excel: archivo corrupto")
	// ErrInvalidLocation: URL vacía o en blanco.
	ErrInvalidLocation = errors.New("excel: url inválida")
)

const (
	maxRetries     = 3
	retryBackoff   = 2 * time.Second
	attemptTimeout = 15 * time.Second
)

// Cache mantiene el workbook de cuentas en memoria y lo refresca
// cuando supera el TTL. Un refresco fallido nunca reemplaza un
// snapshot previo válido.
type Cache struct {
	log    *slog.Logger
	client *http.Client
	ttl    time.Duration

	mu        sync.RWMutex
	url       string
	wb        *excelize.File
	fetchedAt time.Time

	sf singleflight.Group

	// hooks para tests
	now   func() time.Time
	sleep func(time.Duration)
}

func NewCache(log *slog.Logger, url string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		log:    log,
		client: &http.Client{Timeout: attemptTimeout},
		ttl:    ttl,
		url:    url,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Workbook devuelve el snapshot cacheado, refrescándolo si expiró.
// Los lectores concurrentes siguen usando el snapshot anterior mientras
// un único refresco está en curso.
func (c *Cache) Workbook(ctx context.Context) (*excelize.File, error) {
	if wb, ok := c.fresh(); ok {
		return wb, nil
	}

	v, err, _ := c.sf.Do("refresh", func() (any, error) {
		// otro turno pudo habernos ganado el refresco
		if wb, ok := c.fresh(); ok {
			return wb, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*excelize.File), nil
}

func (c *Cache) fresh() (*excelize.File, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.wb != nil && c.now().Sub(c.fetchedAt) <= c.ttl {
		return c.wb, true
	}
	return nil, false
}

func (c *Cache) refresh(ctx context.Context) (*excelize.File, error) {
	c.mu.RLock()
	url := c.url
	c.mu.RUnlock()

	data, err := c.download(ctx, url)
	if err != nil {
		metrics.WorkbookRefreshes.WithLabelValues("unavailable").Inc()
		return nil, err
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		metrics.WorkbookRefreshes.WithLabelValues("corrupt").Inc()
		c.log.Error("workbook descargado no parsea, se conserva el cache anterior", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrCorruptSource, err)
	}

	c.mu.Lock()
	c.wb = wb
	c.fetchedAt = c.now()
	c.mu.Unlock()

	metrics.WorkbookRefreshes.WithLabelValues("ok").Inc()
	c.log.Info("cache de workbook actualizado", "hojas", wb.GetSheetList())
	return wb, nil
}

func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, err := c.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		c.log.Warn("descarga de workbook falló", "intento", attempt, "err", err)
		if attempt < maxRetries {
			c.sleep(retryBackoff)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, lastErr)
}

func (c *Cache) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// SetSourceURL cambia la URL del archivo y descarta el cache para que
// la próxima consulta vuelva a descargar.
func (c *Cache) SetSourceURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrInvalidLocation
	}
	c.mu.Lock()
	c.url = url
	c.wb = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
	c.log.Info("URL del workbook actualizada", "url", url)
	return nil
}
