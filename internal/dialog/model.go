package dialog

type State string

const (
	// Menú principal; también el estado inicial de todo usuario.
	StateMenuPrincipal State = "MENU_PRINCIPAL"

	// Registro de alumno
	StateRegistroID  State = "REGISTRO_ID"  // espera número de identidad (13 dígitos)
	StateRegistroPIN State = "REGISTRO_PIN" // espera PIN de autorización

	// Selección sobre lista numerada de alumnos vinculados
	StateSeleccionAlumno State = "SELECCION_ALUMNO"
	StateEliminarAlumno  State = "ELIMINAR_ALUMNO"

	// Solo administradores: el próximo mensaje se reenvía a todos
	StateAdminBroadcast State = "MENU_ADMIN_BROADCAST"
)

type Payload map[string]any

// Item es el estado de conversación de un remitente. LastGreeting
// guarda la fecha local (YYYY-MM-DD) del último saludo para no
// saludar dos veces el mismo día.
type Item struct {
	UserID       string
	State        State
	Payload      Payload
	LastGreeting string
}

// GetString lee una cadena del payload de forma segura.
func GetString(p Payload, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetStringSlice lee una lista de cadenas; el payload viaja por JSON,
// así que las listas llegan como []any.
func GetStringSlice(p Payload, key string) []string {
	v, ok := p[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
