package transport

import "context"

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
	MediaSticker  MediaKind = "sticker"
)

// Media describe un adjunto. Si ID está presente el proveedor puede
// reenviarlo por referencia sin volver a subir los bytes; Data solo se
// usa cuando no hay ID.
type Media struct {
	ID       string
	Kind     MediaKind
	Data     []byte
	MIMEType string
	Caption  string
	FileName string
}

// Inbound es un mensaje entrante ya normalizado: texto plano o media.
// Raw conserva el mensaje original para reenvíos (broadcast).
type Inbound struct {
	SenderID string
	Text     string
	Media    *Media
	Raw      any
}

// Sender es la superficie de envío que consume el bot. La
// implementación concreta (WhatsApp) vive detrás de esta interfaz.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
	SendMedia(ctx context.Context, to string, m Media) error
}
