package guardians

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Link vincula un alumno al encargado. Repetir el vínculo no es error.
func (r *Repo) Link(ctx context.Context, guardianID, studentID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO guardian_students (guardian_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (guardian_id, student_id) DO NOTHING
	`, guardianID, studentID)
	return err
}

// Unlink elimina el vínculo; devuelve false si no existía.
func (r *Repo) Unlink(ctx context.Context, guardianID, studentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM guardian_students WHERE guardian_id = $1 AND student_id = $2
	`, guardianID, studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// StudentsOf devuelve los alumnos vinculados en orden de registro.
func (r *Repo) StudentsOf(ctx context.Context, guardianID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id FROM guardian_students
		WHERE guardian_id = $1
		ORDER BY created_at, student_id
	`, guardianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AllGuardians lista los encargados con al menos un alumno vinculado;
// es la lista de destinatarios del broadcast.
func (r *Repo) AllGuardians(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT guardian_id FROM guardian_students ORDER BY guardian_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// All devuelve la vista administrativa completa.
func (r *Repo) All(ctx context.Context) ([]Guardian, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT guardian_id, array_agg(student_id ORDER BY created_at, student_id)
		FROM guardian_students
		GROUP BY guardian_id
		ORDER BY guardian_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Guardian
	for rows.Next() {
		var g Guardian
		if err := rows.Scan(&g.ID, &g.Alumnos); err != nil {
			return nil, err
		}
		g.Activo = len(g.Alumnos) > 0
		out = append(out, g)
	}
	return out, rows.Err()
}
