package whatsapp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/ijcv/chilo-bot/internal/transport"
)

// Webhook recibe las notificaciones de la Cloud API y las convierte en
// mensajes Inbound. Las formas de mensaje no soportadas se descartan,
// nunca son error.
type Webhook struct {
	log         *slog.Logger
	verifyToken string
	inbound     chan transport.Inbound
}

func NewWebhook(log *slog.Logger, verifyToken string) *Webhook {
	return &Webhook{
		log:         log,
		verifyToken: verifyToken,
		inbound:     make(chan transport.Inbound, 64),
	}
}

// Inbound es el canal que consume el loop del bot.
func (w *Webhook) Inbound() <-chan transport.Inbound { return w.inbound }

// payload de notificación de la Cloud API, solo los campos que usamos
type notification struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *inboundMedia `json:"image"`
	Video    *inboundMedia `json:"video"`
	Audio    *inboundMedia `json:"audio"`
	Document *inboundMedia `json:"document"`
	Sticker  *inboundMedia `json:"sticker"`
	Context  *struct {
		ID string `json:"id"`
	} `json:"context"`
}

type inboundMedia struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

func (w *Webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.verify(rw, r)
	case http.MethodPost:
		w.receive(rw, r)
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (w *Webhook) verify(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == w.verifyToken {
		_, _ = rw.Write([]byte(q.Get("hub.challenge")))
		return
	}
	rw.WriteHeader(http.StatusForbidden)
}

func (w *Webhook) receive(rw http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	var n notification
	if err := json.Unmarshal(raw, &n); err != nil {
		w.log.Warn("webhook con cuerpo ilegible", "err", err)
		rw.WriteHeader(http.StatusOK) // la API reintenta los no-200
		return
	}

	for _, entry := range n.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if in, ok := normalize(msg); ok {
					select {
					case w.inbound <- in:
					default:
						w.log.Warn("cola de entrada llena, mensaje descartado", "from", msg.From)
					}
				}
			}
		}
	}
	rw.WriteHeader(http.StatusOK)
}

func normalize(msg inboundMessage) (transport.Inbound, bool) {
	in := transport.Inbound{SenderID: msg.From, Raw: msg}

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return in, false
		}
		in.Text = msg.Text.Body
		return in, true
	case "image", "video", "audio", "document", "sticker":
		m := mediaOf(msg)
		if m == nil {
			return in, false
		}
		in.Media = m
		in.Text = m.Caption
		return in, true
	default:
		return in, false
	}
}

func mediaOf(msg inboundMessage) *transport.Media {
	pick := func(kind transport.MediaKind, im *inboundMedia) *transport.Media {
		if im == nil {
			return nil
		}
		return &transport.Media{
			ID:       im.ID,
			Kind:     kind,
			MIMEType: im.MIMEType,
			Caption:  im.Caption,
			FileName: im.Filename,
		}
	}
	switch msg.Type {
	case "image":
		return pick(transport.MediaImage, msg.Image)
	case "video":
		return pick(transport.MediaVideo, msg.Video)
	case "audio":
		return pick(transport.MediaAudio, msg.Audio)
	case "document":
		return pick(transport.MediaDocument, msg.Document)
	case "sticker":
		return pick(transport.MediaSticker, msg.Sticker)
	}
	return nil
}
