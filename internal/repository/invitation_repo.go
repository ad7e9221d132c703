package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dassyor/internal/model"
)

type InvitationRepository struct {
	db *pgxpool.Pool
}

func NewInvitationRepository(db *pgxpool.Pool) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = `
        id, project_id, inviter_id, invitee_email, token, status,
        created_at, expires_at, accepted_at, rejected_at
`

func scanInvitation(row pgx.Row) (*model.ProjectInvitation, error) {
	var inv model.ProjectInvitation
	err := row.Scan(
		&inv.ID, &inv.ProjectID, &inv.InviterID, &inv.InviteeEmail, &inv.Token,
		&inv.Status, &inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.RejectedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvitationRepository) Create(ctx context.Context, inv *model.ProjectInvitation) error {
	query := `
        INSERT INTO project_invitations (id, project_id, inviter_id, invitee_email, token, status, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7)
        RETURNING created_at
    `
	return r.db.QueryRow(ctx, query,
		inv.ID, inv.ProjectID, inv.InviterID, inv.InviteeEmail, inv.Token, inv.Status, inv.ExpiresAt,
	).Scan(&inv.CreatedAt)
}

func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*model.ProjectInvitation, error) {
	query := `SELECT` + invitationColumns + `FROM project_invitations WHERE token = $1`
	return scanInvitation(r.db.QueryRow(ctx, query, token))
}

// FindPending returns an open invitation for the same project and email,
// if one exists.
func (r *InvitationRepository) FindPending(ctx context.Context, projectID uuid.UUID, email string) (*model.ProjectInvitation, error) {
	query := `
        SELECT` + invitationColumns + `
        FROM project_invitations
        WHERE project_id = $1 AND invitee_email = $2 AND status = $3
        ORDER BY created_at DESC
        LIMIT 1
    `
	return scanInvitation(r.db.QueryRow(ctx, query, projectID, email, model.InvitationPending))
}

func (r *InvitationRepository) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE project_invitations
        SET status = $2, accepted_at = NOW()
        WHERE id = $1 AND status = $3
    `
	tag, err := r.db.Exec(ctx, query, id, model.InvitationAccepted, model.InvitationPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

func (r *InvitationRepository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE project_invitations
        SET status = $2, rejected_at = NOW()
        WHERE id = $1 AND status = $3
    `
	tag, err := r.db.Exec(ctx, query, id, model.InvitationRejected, model.InvitationPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}
