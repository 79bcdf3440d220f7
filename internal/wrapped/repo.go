package wrapped

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gamewrapped/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Save persists a generated wrapped and returns its opaque id. The id
// doubles as the public share key, so it is never sequential.
func (r *Repo) Save(ctx context.Context, w *models.Wrapped) (string, error) {
	w.ID = uuid.NewString()
	w.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("marshal wrapped: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO wrapped (id, payload, created_at)
		VALUES (?, ?, ?)
	`, w.ID, string(payload), w.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert wrapped: %w", err)
	}

	return w.ID, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*models.Wrapped, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT payload
		FROM wrapped
		WHERE id = ?
	`, id)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wrapped: %w", err)
	}

	var w models.Wrapped
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, fmt.Errorf("unmarshal wrapped %s: %w", id, err)
	}
	return &w, nil
}
