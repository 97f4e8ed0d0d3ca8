package guardians

// Guardian es la vista administrativa de un encargado: su número de
// WhatsApp y los alumnos vinculados.
type Guardian struct {
	ID      string   `json:"id"`
	Alumnos []string `json:"alumnos"`
	Activo  bool     `json:"activo"`
}
