package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/ijcv/chilo-bot/internal/dialog"
	"github.com/ijcv/chilo-bot/internal/domain/students"
)

// menuOption es una entrada del menú principal. El menú es una tabla
// ordenada: las variantes (encargado con alumnos, administrador) son
// datos, no ramas de código.
type menuOption struct {
	key     string
	label   string
	visible func(numAlumnos int, admin bool) bool
	handle  func(b *Bot, ctx context.Context, sender string, alumnos []string, firstOfDay bool) error
}

var mainMenu []menuOption

// La tabla se arma en init: los handlers llegan al menú a través de
// sendMainMenu, y una expresión de método en el inicializador de la
// variable cerraría el ciclo.
func init() {
	mainMenu = []menuOption{
		{
			key:     "1",
			label:   "1️⃣ *Registrar* nuevo alumno",
			visible: func(int, bool) bool { return true },
			handle:  (*Bot).startRegistration,
		},
		{
			key:     "2",
			label:   "2️⃣ *Consultar* estado de pagos",
			visible: func(int, bool) bool { return true },
			handle:  (*Bot).startPaymentQuery,
		},
		{
			key:     "3",
			label:   "3️⃣ *Información* de la escuela",
			visible: func(int, bool) bool { return true },
			handle:  (*Bot).sendSchoolInfo,
		},
		{
			key:     "4",
			label:   "4️⃣ *Contactar* administración",
			visible: func(int, bool) bool { return true },
			handle:  (*Bot).sendContactInfo,
		},
		{
			key:     "5",
			label:   "5️⃣ *Eliminar* alumno de mi cuenta",
			visible: func(n int, _ bool) bool { return n > 0 },
			handle:  (*Bot).startUnlink,
		},
		{
			key:     "6",
			label:   "6️⃣ *Broadcast Admin*",
			visible: func(_ int, admin bool) bool { return admin },
			handle:  (*Bot).startBroadcastMenu,
		},
	}
}

// sendMainMenu arma el menú según los alumnos vinculados y los
// permisos del remitente, y deja el estado en MENU_PRINCIPAL.
// Se envía sin pausa artificial.
func (b *Bot) sendMainMenu(ctx context.Context, sender string) {
	alumnos, err := b.guardians.StudentsOf(ctx, sender)
	if err != nil {
		b.log.Error("no se pudieron listar alumnos del encargado", "sender", sender, "err", err)
	}

	var sb strings.Builder
	sb.WriteString("🏫 *BIENVENIDO AL SISTEMA ESCOLAR*\n\n")
	if len(alumnos) > 0 {
		fmt.Fprintf(&sb, "👨‍👩‍👧‍👦 Tiene %d alumno(s) registrado(s)\n\n", len(alumnos))
	}
	sb.WriteString("Seleccione una opción:\n\n")
	for _, opt := range mainMenu {
		if opt.visible(len(alumnos), b.isAdmin(sender)) {
			sb.WriteString(opt.label + "\n")
		}
	}
	sb.WriteString("\nResponda con el número de la opción deseada.")

	if err := b.states.Set(ctx, sender, dialog.StateMenuPrincipal, nil); err != nil {
		b.log.Error("no se pudo guardar estado", "sender", sender, "err", err)
	}
	b.sendNow(ctx, sender, sb.String())
}

func (b *Bot) sendSchoolInfo(ctx context.Context, sender string, _ []string, _ bool) error {
	e := b.escuela
	var sb strings.Builder
	sb.WriteString("📚 *INFORMACIÓN DE LA ESCUELA*\n\n")
	fmt.Fprintf(&sb, "*%s*\n\n", e.Nombre)
	fmt.Fprintf(&sb, "📍 *Dirección:* %s\n", e.Direccion)
	fmt.Fprintf(&sb, "📞 *Teléfono:* %s\n", e.Telefono)
	fmt.Fprintf(&sb, "📧 *Email:* %s\n", e.Email)
	fmt.Fprintf(&sb, "⏰ *Horario:* %s\n", e.Horario)
	fmt.Fprintf(&sb, "🌐 *Sitio Web:* %s\n\n", e.SitioWeb)
	sb.WriteString("🏦 *Cuentas Bancarias:*\n")
	fmt.Fprintf(&sb, "⚪ *BAC:* %s\n", e.BAC)
	fmt.Fprintf(&sb, "⚪ *Occidente:* %s\n", e.Occidente)
	sb.WriteString("Escriba *menú* para volver al menú principal.")

	b.sendPaced(ctx, sender, sb.String())
	return nil
}

func (b *Bot) sendContactInfo(ctx context.Context, sender string, _ []string, _ bool) error {
	e := b.escuela
	var sb strings.Builder
	sb.WriteString("📞 *CONTACTAR ADMINISTRACIÓN*\n\n")
	sb.WriteString("Para consultas administrativas puede comunicarse al:\n")
	fmt.Fprintf(&sb, "📱 *WhatsApp:* %s\n", e.Telefono)
	fmt.Fprintf(&sb, "📧 *Email:* %s\n\n", e.Email)
	fmt.Fprintf(&sb, "⏰ *Horario de atención:*\n%s\n\n", e.Horario)
	sb.WriteString("Escriba *menú* para volver al menú principal.")

	b.sendPaced(ctx, sender, sb.String())
	return nil
}

// sendPaymentStatus arma el detalle de pagos de un estudiante: meses
// de la ventana del plan con su estado, cuota y bloque de deuda.
func (b *Bot) sendPaymentStatus(ctx context.Context, sender string, st *students.Student) {
	if st == nil || st.Nombre == "" {
		b.sendPaced(ctx, sender, "❌ No se encontró información del alumno. Por favor contacte a administración.")
		return
	}

	deuda := students.ComputeDebt(st, b.now().In(b.loc))

	inicio := 0
	if st.PlanDePago == 10 {
		inicio = 1
	}
	mesActual := int(b.now().In(b.loc).Month())

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *ESTADO DE PAGOS - %s*\n", strings.ToUpper(st.Nombre))
	fmt.Fprintf(&sb, "🏫 Grado: %s\n\n", st.Grado)

	for i := inicio; i < mesActual; i++ {
		mes := students.MesesOrdenados[i]
		titulo := strings.ToUpper(mes[:1]) + mes[1:]
		if v := st.Meses[mes]; v != nil {
			fmt.Fprintf(&sb, "▫️ %s: L.%s ✅ Pagado\n", titulo, students.FormatAmount(*v))
		} else {
			fmt.Fprintf(&sb, "▫️ %s: ❌ Pendiente\n", titulo)
		}
	}

	fmt.Fprintf(&sb, "\n💵 Cuota mensual: L.%s", students.FormatAmount(deuda.CuotaMensual))
	fmt.Fprintf(&sb, "\n📅 Meses pendientes: %d", len(deuda.MesesPendientes))
	if deuda.AlDia {
		sb.WriteString("\n\n✅ *AL DÍA EN PAGOS*")
	} else {
		fmt.Fprintf(&sb, "\n\n❌ *DEUDA MENSUALIDAD: L.%s*", students.FormatAmount(deuda.DeudaMensualidad))
		fmt.Fprintf(&sb, "\n❌ *DEUDA MORA: L.%s*", students.FormatAmount(deuda.DeudaMora))
		fmt.Fprintf(&sb, "\n❌ *DEUDA TOTAL: L.%s*", students.FormatAmount(deuda.TotalDeuda))
	}

	// una cuota irrisoria delata una celda mal extraída; se adjunta el
	// texto original para diagnosticarla desde el chat
	if st.CuotaMensual < 10 {
		fmt.Fprintf(&sb, "\n\n[DEBUG] Valor original: %q", st.CuotaOriginal)
	}

	b.sendPaced(ctx, sender, sb.String())
}

// studentList arma la lista numerada para los estados de selección.
func (b *Bot) studentList(ctx context.Context, titulo string, alumnos []string, pie string) string {
	var sb strings.Builder
	sb.WriteString(titulo + "\n\n")
	n := 1
	for _, id := range alumnos {
		st, err := b.students.Find(ctx, id)
		if err != nil || st == nil {
			continue
		}
		fmt.Fprintf(&sb, "%d. %s - %s\n", n, st.Nombre, st.Grado)
		n++
	}
	sb.WriteString("\n" + pie)
	return sb.String()
}
