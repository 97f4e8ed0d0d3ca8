package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ijcv/chilo-bot/internal/transport"
)

const graphBase = "https://graph.facebook.com/v19.0"

// Client habla con la API de WhatsApp Business (Cloud API).
type Client struct {
	log     *slog.Logger
	http    *http.Client
	token   string
	phoneID string
	base    string
}

func NewClient(log *slog.Logger, token, phoneID string) *Client {
	return &Client{
		log:     log,
		http:    &http.Client{Timeout: 30 * time.Second},
		token:   token,
		phoneID: phoneID,
		base:    graphBase,
	}
}

func (c *Client) SendText(ctx context.Context, to, text string) error {
	body := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	return c.postJSON(ctx, fmt.Sprintf("%s/%s/messages", c.base, c.phoneID), body)
}

func (c *Client) SendMedia(ctx context.Context, to string, m transport.Media) error {
	mediaID := m.ID
	if mediaID == "" {
		var err error
		mediaID, err = c.upload(ctx, m)
		if err != nil {
			return fmt.Errorf("subir media: %w", err)
		}
	}

	ref := map[string]any{"id": mediaID}
	switch m.Kind {
	case transport.MediaImage, transport.MediaVideo:
		if m.Caption != "" {
			ref["caption"] = m.Caption
		}
	case transport.MediaDocument:
		if m.FileName != "" {
			ref["filename"] = m.FileName
		}
		if m.Caption != "" {
			ref["caption"] = m.Caption
		}
	}

	body := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              string(m.Kind),
		string(m.Kind):      ref,
	}
	return c.postJSON(ctx, fmt.Sprintf("%s/%s/messages", c.base, c.phoneID), body)
}

func (c *Client) upload(ctx context.Context, m transport.Media) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", err
	}
	if err := w.WriteField("type", m.MIMEType); err != nil {
		return "", err
	}
	name := m.FileName
	if name == "" {
		name = "media"
	}
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(m.Data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/media", c.base, c.phoneID), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("media upload status %s: %s", resp.Status, raw)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API status %s: %s", resp.Status, respBody)
	}
	return nil
}
