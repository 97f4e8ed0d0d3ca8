package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Append(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (kind, at, user_id, detail) VALUES ($1,$2,$3,$4)
	`, string(e.Kind), e.At, e.UserID, e.Detalle)
	return err
}

// HistoryOf devuelve los eventos cuyo usuario contiene el id,
// en orden cronológico ascendente.
func (r *Repo) HistoryOf(ctx context.Context, id string) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, at, user_id, detail FROM audit_log
		WHERE user_id LIKE '%' || $1 || '%'
		ORDER BY at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&kind, &e.At, &e.UserID, &e.Detalle); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// bucketExpr produce la clave de agrupación con el mismo formato que
// siempre expuso el panel: 2025-03-04, 2025-W10, 2025-03.
func bucketExpr(p Period) string {
	switch p {
	case PeriodWeek:
		return `to_char(at, 'IYYY-"W"IW')`
	case PeriodMonth:
		return `to_char(at, 'YYYY-MM')`
	default:
		return `to_char(at, 'YYYY-MM-DD')`
	}
}

func (r *Repo) CountByPeriod(ctx context.Context, kind Kind, p Period) (map[string]int, error) {
	q := fmt.Sprintf(`
		SELECT %s AS bucket, count(*) FROM audit_log
		WHERE kind = $1
		GROUP BY bucket ORDER BY bucket
	`, bucketExpr(p))
	rows, err := r.pool.Query(ctx, q, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCounts(rows)
}

// DistinctUsersByPeriod cuenta usuarios activos distintos por periodo
// sobre los eventos de mensaje.
func (r *Repo) DistinctUsersByPeriod(ctx context.Context, p Period) (map[string]int, error) {
	q := fmt.Sprintf(`
		SELECT %s AS bucket, count(DISTINCT user_id) FROM audit_log
		WHERE kind = $1
		GROUP BY bucket ORDER BY bucket
	`, bucketExpr(p))
	rows, err := r.pool.Query(ctx, q, string(KindMensaje))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCounts(rows)
}

func (r *Repo) TotalMessages(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM audit_log WHERE kind = $1
	`, string(KindMensaje)).Scan(&n)
	return n, err
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCounts(rows pgxRows) (map[string]int, error) {
	out := map[string]int{}
	for rows.Next() {
		var bucket string
		var n int
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, err
		}
		out[bucket] = n
	}
	return out, rows.Err()
}
