package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ijcv/chilo-bot/internal/dialog"
	"github.com/ijcv/chilo-bot/internal/domain/audit"
	"github.com/ijcv/chilo-bot/internal/domain/students"
	"github.com/ijcv/chilo-bot/internal/infra/metrics"
	"github.com/ijcv/chilo-bot/internal/transport"
)

var idPattern = regexp.MustCompile(`^\d{13}$`)

const (
	payloadIDEstudiante = "idEstudiante"
	payloadAlumnos      = "alumnos"
)

// handleTurn procesa un turno completo de un remitente, en este orden:
// auditoría, saludo del día, estado de broadcast, comando broadcast,
// atajo "menu", y por último el despacho por estado.
func (b *Bot) handleTurn(ctx context.Context, in transport.Inbound) error {
	sender := in.SenderID
	texto := strings.TrimSpace(in.Text)
	lower := strings.ToLower(texto)

	if err := b.audits.Append(ctx, audit.Event{
		Kind:    audit.KindMensaje,
		At:      b.now(),
		UserID:  sender,
		Detalle: "Mensaje procesado: " + texto,
	}); err != nil {
		b.log.Error("no se pudo auditar el mensaje", "sender", sender, "err", err)
	}

	st, err := b.states.Get(ctx, sender)
	if err != nil {
		return fmt.Errorf("leer estado: %w", err)
	}
	metrics.TurnsTotal.WithLabelValues(string(st.State)).Inc()

	// saludo una vez al día: se saluda, se fuerza el menú y se
	// descarta el texto de este turno
	firstOfDay := st.LastGreeting != b.today()
	if firstOfDay {
		if err := b.states.SetLastGreeting(ctx, sender, b.today()); err != nil {
			b.log.Error("no se pudo registrar el saludo", "sender", sender, "err", err)
		}
		b.sendPaced(ctx, sender, "🐺 ¡Hola! Soy Chilo el lobo asistente virtual del Instituto José Cecilio del Valle.\nEstoy aquí para ayudarte. ¿En qué puedo asistirte hoy? 📚✨.")
		b.sendMainMenu(ctx, sender)
		return nil
	}

	if st.State == dialog.StateAdminBroadcast {
		return b.handleBroadcastState(ctx, sender, in)
	}

	if rest, ok := broadcastCommand(texto, lower); ok {
		return b.handleBroadcastCommand(ctx, sender, rest)
	}

	if lower == "menu" || lower == "menú" {
		b.sendMainMenu(ctx, sender)
		return nil
	}

	switch st.State {
	case dialog.StateMenuPrincipal:
		return b.handleMainMenu(ctx, sender, texto, firstOfDay)
	case dialog.StateRegistroID:
		return b.handleRegistroID(ctx, sender, texto)
	case dialog.StateRegistroPIN:
		return b.handleRegistroPIN(ctx, sender, texto, st.Payload)
	case dialog.StateSeleccionAlumno:
		return b.handleSeleccion(ctx, sender, texto, st.Payload)
	case dialog.StateEliminarAlumno:
		return b.handleEliminar(ctx, sender, texto, st.Payload)
	default:
		b.sendMainMenu(ctx, sender)
		return nil
	}
}

func broadcastCommand(texto, lower string) (string, bool) {
	switch {
	case strings.HasPrefix(lower, "broadcast "):
		return strings.TrimSpace(texto[len("broadcast "):]), true
	case strings.HasPrefix(lower, "bc "):
		return strings.TrimSpace(texto[len("bc "):]), true
	}
	return "", false
}

func (b *Bot) handleMainMenu(ctx context.Context, sender, texto string, firstOfDay bool) error {
	for _, opt := range mainMenu {
		if opt.key == texto {
			alumnos, err := b.guardians.StudentsOf(ctx, sender)
			if err != nil {
				return fmt.Errorf("listar alumnos: %w", err)
			}
			return opt.handle(b, ctx, sender, alumnos, firstOfDay)
		}
	}

	// el primer turno del día ya recibió saludo y menú; no se le
	// regaña además por la opción inválida
	if !firstOfDay {
		b.sendPaced(ctx, sender, "❓ Opción no válida. Por favor seleccione una opción del menú.")
	}
	b.sendMainMenu(ctx, sender)
	return nil
}

func (b *Bot) startRegistration(ctx context.Context, sender string, _ []string, _ bool) error {
	if err := b.states.Set(ctx, sender, dialog.StateRegistroID, dialog.Payload{}); err != nil {
		return err
	}
	b.sendPaced(ctx, sender, "📝 *REGISTRO DE ALUMNO*\n\nPor favor, ingrese el número de identidad del alumno (13 dígitos):")
	return nil
}

func (b *Bot) startPaymentQuery(ctx context.Context, sender string, alumnos []string, _ bool) error {
	switch len(alumnos) {
	case 0:
		b.sendPaced(ctx, sender, "❌ No tiene alumnos registrados. Seleccione la opción 1️⃣ para registrar un alumno.")
		b.sendMainMenu(ctx, sender)
	case 1:
		st, err := b.students.Find(ctx, alumnos[0])
		if err != nil || st == nil {
			if err != nil && !errors.Is(err, students.ErrNotFound) {
				b.log.Error("consulta de estudiante falló", "id", alumnos[0], "err", err)
			}
			b.sendPaced(ctx, sender, "❌ No se encontró información del alumno registrado. Por favor contacte a administración.")
			b.sendMainMenu(ctx, sender)
			return nil
		}
		b.sendPaymentStatus(ctx, sender, st)
		b.scheduleMenu(ctx, sender, b.statusMenuDelay)
	default:
		lista := b.studentList(ctx, "👨‍👩‍👧‍👦 *SELECCIONE ALUMNO*", alumnos,
			"Responda con el número del alumno para ver su estado de pagos.")
		if err := b.states.Set(ctx, sender, dialog.StateSeleccionAlumno, dialog.Payload{payloadAlumnos: alumnos}); err != nil {
			return err
		}
		b.sendPaced(ctx, sender, lista)
	}
	return nil
}

func (b *Bot) startUnlink(ctx context.Context, sender string, alumnos []string, _ bool) error {
	if len(alumnos) == 0 {
		b.sendPaced(ctx, sender, "❌ No tiene alumnos registrados para eliminar.")
		b.sendMainMenu(ctx, sender)
		return nil
	}
	lista := b.studentList(ctx, "🗑️ *ELIMINAR ALUMNO*", alumnos,
		"Responda con el número del alumno que desea eliminar de su cuenta.")
	if err := b.states.Set(ctx, sender, dialog.StateEliminarAlumno, dialog.Payload{payloadAlumnos: alumnos}); err != nil {
		return err
	}
	b.sendPaced(ctx, sender, lista)
	return nil
}

func (b *Bot) startBroadcastMenu(ctx context.Context, sender string, _ []string, _ bool) error {
	if !b.isAdmin(sender) {
		b.sendPaced(ctx, sender, "❌ Opción no válida.")
		b.sendMainMenu(ctx, sender)
		return nil
	}
	if err := b.states.Set(ctx, sender, dialog.StateAdminBroadcast, dialog.Payload{}); err != nil {
		return err
	}
	b.sendPaced(ctx, sender, "📢 *MENÚ BROADCAST ADMIN*\n\nPor favor, envíe cualquier mensaje (texto, foto, video, etc.) para enviarlo a todos los encargados.\nEscriba *menú* para volver al menú principal.")
	return nil
}

func (b *Bot) handleRegistroID(ctx context.Context, sender, texto string) error {
	if !idPattern.MatchString(texto) {
		b.sendPaced(ctx, sender, "❌ Formato incorrecto. El número de identidad debe tener 13 dígitos numéricos.\n\nIntente nuevamente o escriba *menú* para volver al menú principal.")
		return nil
	}

	st, err := b.students.Find(ctx, texto)
	if errors.Is(err, students.ErrNotFound) {
		b.sendPaced(ctx, sender, "❌ El número de identidad no está registrado en el sistema. Verifique e intente nuevamente.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("buscar estudiante: %w", err)
	}

	if err := b.states.Set(ctx, sender, dialog.StateRegistroPIN, dialog.Payload{payloadIDEstudiante: texto}); err != nil {
		return err
	}
	b.sendPaced(ctx, sender, fmt.Sprintf("✅ *Alumno encontrado:* %s\n\nAhora ingrese el PIN de autorización:", st.Nombre))
	return nil
}

func (b *Bot) handleRegistroPIN(ctx context.Context, sender, texto string, p dialog.Payload) error {
	idEstudiante, _ := dialog.GetString(p, payloadIDEstudiante)

	if !b.pins.Validate(idEstudiante, texto) {
		b.sendPaced(ctx, sender, "❌ PIN incorrecto. Verifique e intente nuevamente o escriba *menú* para volver al menú principal.")
		return nil
	}

	if err := b.guardians.Link(ctx, sender, idEstudiante); err != nil {
		return fmt.Errorf("vincular alumno: %w", err)
	}
	st, err := b.students.Find(ctx, idEstudiante)
	if err != nil {
		return fmt.Errorf("buscar estudiante: %w", err)
	}

	if err := b.audits.Append(ctx, audit.Event{
		Kind:    audit.KindRegistro,
		At:      b.now(),
		UserID:  sender,
		Detalle: "Alumno registrado: " + idEstudiante,
	}); err != nil {
		b.log.Error("no se pudo auditar el registro", "sender", sender, "err", err)
	}

	b.sendPaced(ctx, sender, fmt.Sprintf("✅ *REGISTRO EXITOSO*\n\nEl alumno *%s* ha sido vinculado a su número.\n\nYa puede consultar su estado de pagos desde el menú principal.", st.Nombre))
	b.scheduleMenu(ctx, sender, b.menuDelay)
	return nil
}

func (b *Bot) handleSeleccion(ctx context.Context, sender, texto string, p dialog.Payload) error {
	alumnos := dialog.GetStringSlice(p, payloadAlumnos)
	idx, ok := parseIndex(texto, len(alumnos))
	if !ok {
		b.sendPaced(ctx, sender, "❌ Opción no válida. Por favor seleccione un número de la lista.")
		return nil
	}

	st, err := b.students.Find(ctx, alumnos[idx])
	if err != nil || st == nil {
		if err != nil && !errors.Is(err, students.ErrNotFound) {
			b.log.Error("consulta de estudiante falló", "id", alumnos[idx], "err", err)
		}
		b.sendPaced(ctx, sender, "❌ No se encontró información del alumno seleccionado. Por favor contacte a administración.")
		b.sendMainMenu(ctx, sender)
		return nil
	}

	b.sendPaymentStatus(ctx, sender, st)
	b.scheduleMenu(ctx, sender, b.menuDelay)
	return nil
}

func (b *Bot) handleEliminar(ctx context.Context, sender, texto string, p dialog.Payload) error {
	alumnos := dialog.GetStringSlice(p, payloadAlumnos)
	idx, ok := parseIndex(texto, len(alumnos))
	if !ok {
		b.sendPaced(ctx, sender, "❌ Opción no válida. Por favor seleccione un número de la lista.")
		return nil
	}

	idAlumno := alumnos[idx]
	st, _ := b.students.Find(ctx, idAlumno)

	removed, err := b.guardians.Unlink(ctx, sender, idAlumno)
	if err != nil || !removed {
		if err != nil {
			b.log.Error("desvincular falló", "sender", sender, "id", idAlumno, "err", err)
		}
		b.sendPaced(ctx, sender, "❌ Error al eliminar el alumno. Por favor contacte a administración.")
		b.scheduleMenu(ctx, sender, b.menuDelay)
		return nil
	}

	if err := b.audits.Append(ctx, audit.Event{
		Kind:    audit.KindEliminacion,
		At:      b.now(),
		UserID:  sender,
		Detalle: "Alumno eliminado: " + idAlumno,
	}); err != nil {
		b.log.Error("no se pudo auditar la eliminación", "sender", sender, "err", err)
	}

	nombre := idAlumno
	if st != nil {
		nombre = st.Nombre
	}
	b.sendPaced(ctx, sender, fmt.Sprintf("✅ El alumno *%s* ha sido eliminado de su cuenta correctamente.", nombre))
	b.scheduleMenu(ctx, sender, b.menuDelay)
	return nil
}

// parseIndex valida la selección 1-based sobre una lista de n elementos.
func parseIndex(texto string, n int) (int, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(texto))
	if err != nil || idx < 1 || idx > n {
		return 0, false
	}
	return idx - 1, true
}
