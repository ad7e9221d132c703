package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dassyor/internal/model"
)

type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
        id, name, description, status, owner_id, start_date, end_date,
        is_deleted, deleted_at, created_at, updated_at
`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Status, &p.OwnerID, &p.StartDate,
		&p.EndDate, &p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	query := `
        INSERT INTO projects (id, name, description, status, owner_id, start_date, is_deleted, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), false, NOW(), NOW())
        RETURNING start_date, created_at, updated_at
    `
	return r.db.QueryRow(ctx, query, p.ID, p.Name, p.Description, p.Status, p.OwnerID).
		Scan(&p.StartDate, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	query := `SELECT` + projectColumns + `FROM projects WHERE id = $1 AND is_deleted = false`
	return scanProject(r.db.QueryRow(ctx, query, id))
}

// ListForUser returns projects the user owns plus projects where the user
// is an active collaborator, newest first.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Project, error) {
	query := `
        SELECT` + projectColumns + `
        FROM projects
        WHERE is_deleted = false
          AND (owner_id = $1
               OR id IN (SELECT project_id FROM project_collaborators
                         WHERE user_id = $1 AND is_active = true))
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET name = $2, description = $3, status = $4, end_date = $5, updated_at = NOW()
        WHERE id = $1 AND is_deleted = false
    `
	tag, err := r.db.Exec(ctx, query, p.ID, p.Name, p.Description, p.Status, p.EndDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

// SoftDelete hides the project from every listing without dropping rows.
func (r *ProjectRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE projects
        SET is_deleted = true, deleted_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND is_deleted = false
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}
