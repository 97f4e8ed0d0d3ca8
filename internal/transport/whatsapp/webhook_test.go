package whatsapp

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijcv/chilo-bot/internal/transport"
)

func testWebhook() *Webhook {
	return NewWebhook(slog.New(slog.NewTextHandler(io.Discard, nil)), "secreto")
}

func TestVerifyHandshake(t *testing.T) {
	w := testWebhook()

	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secreto&hub.challenge=reto-123", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reto-123", rec.Body.String())

	rec = httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=equivocado&hub.challenge=reto-123", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReceiveNormalizesTextAndMedia(t *testing.T) {
	w := testWebhook()

	body := `{"entry":[{"changes":[{"value":{"messages":[
		{"from":"50488881111","type":"text","text":{"body":"hola"}},
		{"from":"50488881111","type":"image","image":{"id":"m-1","mime_type":"image/jpeg","caption":"foto"}},
		{"from":"50488881111","type":"reaction"}
	]}}]}]}`

	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, w.inbound, 2)

	in := <-w.inbound
	assert.Equal(t, "50488881111", in.SenderID)
	assert.Equal(t, "hola", in.Text)
	assert.Nil(t, in.Media)

	in = <-w.inbound
	require.NotNil(t, in.Media)
	assert.Equal(t, "m-1", in.Media.ID)
	assert.Equal(t, transport.MediaImage, in.Media.Kind)
	assert.Equal(t, "foto", in.Text)
}

func TestReceiveIgnoresMalformedBody(t *testing.T) {
	w := testWebhook()

	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("no-json")))
	// se responde 200 para que la API no reintente
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, w.inbound)
}
