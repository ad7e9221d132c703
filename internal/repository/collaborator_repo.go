package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dassyor/internal/model"
)

// CollaboratorRepository manages project membership rows. A (project, user)
// pair keeps a single row for life; remove and re-add toggle is_active.
type CollaboratorRepository struct {
	db *pgxpool.Pool
}

func NewCollaboratorRepository(db *pgxpool.Pool) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

func (r *CollaboratorRepository) Find(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectCollaborator, error) {
	query := `
        SELECT id, project_id, user_id, is_active, joined_at, left_at
        FROM project_collaborators
        WHERE project_id = $1 AND user_id = $2
    `
	var c model.ProjectCollaborator
	err := r.db.QueryRow(ctx, query, projectID, userID).Scan(
		&c.ID, &c.ProjectID, &c.UserID, &c.IsActive, &c.JoinedAt, &c.LeftAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CollaboratorRepository) IsActiveCollaborator(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS(
            SELECT 1 FROM project_collaborators
            WHERE project_id = $1 AND user_id = $2 AND is_active = true
        )
    `
	var active bool
	err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&active)
	return active, err
}

func (r *CollaboratorRepository) Insert(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `
        INSERT INTO project_collaborators (project_id, user_id, is_active, joined_at)
        VALUES ($1, $2, true, NOW())
    `
	_, err := r.db.Exec(ctx, query, projectID, userID)
	return err
}

// Reactivate flips an inactive row back on and refreshes joined_at.
func (r *CollaboratorRepository) Reactivate(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `
        UPDATE project_collaborators
        SET is_active = true, joined_at = NOW(), left_at = NULL
        WHERE project_id = $1 AND user_id = $2 AND is_active = false
    `
	tag, err := r.db.Exec(ctx, query, projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

func (r *CollaboratorRepository) Deactivate(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `
        UPDATE project_collaborators
        SET is_active = false, left_at = NOW()
        WHERE project_id = $1 AND user_id = $2 AND is_active = true
    `
	tag, err := r.db.Exec(ctx, query, projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

// ListActiveUserIDs returns the user ids of active collaborators.
func (r *CollaboratorRepository) ListActiveUserIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	query := `
        SELECT user_id FROM project_collaborators
        WHERE project_id = $1 AND is_active = true
        ORDER BY joined_at
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
