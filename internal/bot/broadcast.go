package bot

import (
	"context"
	"fmt"

	"github.com/ijcv/chilo-bot/internal/infra/metrics"
	"github.com/ijcv/chilo-bot/internal/transport"
)

// handleBroadcastState atiende al administrador dentro del menú de
// broadcast: el mensaje (texto o media) se reenvía tal cual a todos
// los encargados registrados y se vuelve al menú principal.
func (b *Bot) handleBroadcastState(ctx context.Context, sender string, in transport.Inbound) error {
	if !b.isAdmin(sender) {
		b.sendNow(ctx, sender, "❌ No tiene permisos para enviar mensajes broadcast.")
		b.sendMainMenu(ctx, sender)
		return nil
	}

	enviados, err := b.broadcastInbound(ctx, in)
	if err != nil {
		return err
	}
	b.sendNow(ctx, sender, fmt.Sprintf("✅ Se mandaron %d encargados.", enviados))
	b.sendMainMenu(ctx, sender)
	return nil
}

// handleBroadcastCommand atiende los prefijos "broadcast " y "bc "
// desde cualquier estado. Solo administradores; no cambia el estado.
func (b *Bot) handleBroadcastCommand(ctx context.Context, sender, texto string) error {
	if !b.isAdmin(sender) {
		b.sendNow(ctx, sender, "❌ No tiene permisos para enviar mensajes broadcast.")
		return nil
	}

	enviados, err := b.broadcastText(ctx, texto)
	if err != nil {
		return err
	}
	b.sendNow(ctx, sender, fmt.Sprintf("✅ Se mandaron %d encargados.", enviados))
	return nil
}

// broadcastText envía texto a todos los encargados registrados, de
// forma secuencial y con pausa entre envíos. Los fallos por
// destinatario se registran y no interrumpen el resto.
func (b *Bot) broadcastText(ctx context.Context, texto string) (int, error) {
	return b.broadcast(ctx, func(ctx context.Context, to string) error {
		return b.sender.SendText(ctx, to, texto)
	})
}

// broadcastInbound reenvía un mensaje entrante tal cual: media por
// referencia cuando el proveedor la dio, texto plano si no hay media.
func (b *Bot) broadcastInbound(ctx context.Context, in transport.Inbound) (int, error) {
	if in.Media == nil {
		return b.broadcastText(ctx, in.Text)
	}
	return b.broadcast(ctx, func(ctx context.Context, to string) error {
		return b.sender.SendMedia(ctx, to, *in.Media)
	})
}

func (b *Bot) broadcast(ctx context.Context, send func(ctx context.Context, to string) error) (int, error) {
	destinatarios, err := b.guardians.AllGuardians(ctx)
	if err != nil {
		return 0, fmt.Errorf("listar encargados: %w", err)
	}

	enviados := 0
	for _, to := range destinatarios {
		b.pause(ctx)
		if err := send(ctx, to); err != nil {
			b.log.Error("broadcast falló para destinatario", "to", to, "err", err)
			continue
		}
		enviados++
		metrics.BroadcastSent.Inc()
	}
	b.log.Info("broadcast completado", "enviados", enviados, "total", len(destinatarios))
	return enviados, nil
}
