package pin

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Validator compara el PIN contra el workbook de relaciones
// (columna 1 = identidad del alumno, columna 2 = PIN). Cualquier
// falla de lectura se trata como PIN inválido: nunca propaga error
// al flujo de conversación.
type Validator struct {
	log *slog.Logger

	mu   sync.RWMutex
	path string
}

func NewValidator(log *slog.Logger, path string) *Validator {
	return &Validator{log: log, path: path}
}

func (v *Validator) Validate(studentID, pin string) bool {
	v.mu.RLock()
	path := v.path
	v.mu.RUnlock()

	f, err := excelize.OpenFile(path)
	if err != nil {
		v.log.Error("no se pudo abrir el archivo de relaciones", "path", path, "err", err)
		return false
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return false
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		v.log.Error("no se pudo leer la hoja de relaciones", "err", err)
		return false
	}

	for i, row := range rows {
		if i == 0 { // encabezado
			continue
		}
		if len(row) < 2 {
			continue
		}
		if strings.TrimSpace(row[0]) == studentID && strings.TrimSpace(row[1]) == pin {
			return true
		}
	}
	return false
}

// Replace reemplaza el archivo de relaciones de forma atómica
// (escritura a temporal + rename). Valida que el contenido parsee
// como .xlsx antes de tocar el archivo vigente.
func (v *Validator) Replace(data []byte) error {
	if _, err := excelize.OpenReader(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("el archivo no es un .xlsx válido: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dir := filepath.Dir(v.path)
	tmp, err := os.CreateTemp(dir, "relaciones-*.xlsx")
	if err != nil {
		return fmt.Errorf("crear temporal: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("escribir temporal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, v.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("reemplazar archivo: %w", err)
	}
	v.log.Info("archivo de relaciones reemplazado", "path", v.path)
	return nil
}
