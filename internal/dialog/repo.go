package dialog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Get(ctx context.Context, userID string) (*Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT state, payload, COALESCE(last_greeting, '')
		FROM dialog_states WHERE user_id = $1
	`, userID)
	var state string
	var raw []byte
	var greeting string
	if err := row.Scan(&state, &raw, &greeting); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// sin fila: el estado nace perezosamente en el menú principal
			return &Item{UserID: userID, State: StateMenuPrincipal, Payload: Payload{}}, nil
		}
		return nil, err
	}
	var p Payload
	_ = json.Unmarshal(raw, &p)
	if p == nil {
		p = Payload{}
	}
	return &Item{UserID: userID, State: State(state), Payload: p, LastGreeting: greeting}, nil
}

func (r *Repo) Set(ctx context.Context, userID string, state State, payload Payload) error {
	raw, _ := json.Marshal(payload)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dialog_states (user_id, state, payload, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (user_id) DO UPDATE SET
		  state=$2, payload=$3, updated_at=now()
	`, userID, string(state), raw)
	return err
}

// SetLastGreeting registra la fecha local del saludo del día sin tocar
// estado ni payload.
func (r *Repo) SetLastGreeting(ctx context.Context, userID, date string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dialog_states (user_id, state, payload, last_greeting, updated_at)
		VALUES ($1,$2,'{}',$3,now())
		ON CONFLICT (user_id) DO UPDATE SET
		  last_greeting=$3, updated_at=now()
	`, userID, string(StateMenuPrincipal), date)
	return err
}
