package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dassyor/internal/model"
)

// PhaseRepository manages the global phase catalog.
type PhaseRepository struct {
	db *pgxpool.Pool
}

func NewPhaseRepository(db *pgxpool.Pool) *PhaseRepository {
	return &PhaseRepository{db: db}
}

func (r *PhaseRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM phases`).Scan(&count)
	return count, err
}

// InsertBatch seeds catalog phases inside a single transaction so a partial
// seed never becomes visible.
func (r *PhaseRepository) InsertBatch(ctx context.Context, phases []*model.Phase) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO phases (id, name, description, order_index, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
    `
	for _, p := range phases {
		if _, err := tx.Exec(ctx, query, p.ID, p.Name, p.Description, p.OrderIndex, p.IsActive); err != nil {
			return fmt.Errorf("insert phase %q: %w", p.Name, err)
		}
	}

	return tx.Commit(ctx)
}

// ListActive returns the catalog ordered by position.
func (r *PhaseRepository) ListActive(ctx context.Context) ([]*model.Phase, error) {
	query := `
        SELECT id, name, description, order_index, is_active, created_at, updated_at
        FROM phases
        WHERE is_active = true
        ORDER BY order_index
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []*model.Phase
	for rows.Next() {
		var p model.Phase
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OrderIndex, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		phases = append(phases, &p)
	}
	return phases, rows.Err()
}

func (r *PhaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Phase, error) {
	query := `
        SELECT id, name, description, order_index, is_active, created_at, updated_at
        FROM phases
        WHERE id = $1
    `
	var p model.Phase
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.OrderIndex, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
