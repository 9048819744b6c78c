package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/player"
)

var _ player.Repository = (*PlayerRepo)(nil)

type PlayerRepo struct {
	DB *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{DB: db}
}

func (r *PlayerRepo) Get(ctx context.Context, id string) (*domain.Player, error) {
	query := `SELECT id, name, rating, created_at FROM players WHERE id = ?;`

	var p domain.Player
	err := r.DB.QueryRowContext(ctx, r.DB.rebind(query), id).Scan(&p.ID, &p.Name, &p.Rating, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepo) Create(ctx context.Context, p *domain.Player) error {
	query := `INSERT INTO players (id, name, rating, created_at) VALUES (?, ?, ?, ?);`

	_, err := r.DB.ExecContext(ctx, r.DB.rebind(query), p.ID, p.Name, p.Rating, timestamp(p.CreatedAt))
	if isUniqueViolation(err) {
		return domain.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *PlayerRepo) UpdateName(ctx context.Context, id, name string) error {
	query := `UPDATE players SET name = ? WHERE id = ?;`

	result, err := r.DB.ExecContext(ctx, r.DB.rebind(query), name, id)
	if isUniqueViolation(err) {
		return domain.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update player name: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

// UpdateRatings applies all ratings or none.
func (r *PlayerRepo) UpdateRatings(ctx context.Context, ratings map[string]int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.DB.rebind(`UPDATE players SET rating = ? WHERE id = ?;`)
	for id, rating := range ratings {
		result, err := tx.ExecContext(ctx, query, rating, id)
		if err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		if rows, err := result.RowsAffected(); err == nil && rows == 0 {
			return domain.ErrPlayerNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
