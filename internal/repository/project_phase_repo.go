package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dassyor/internal/model"
)

// ErrNoRowUpdated reports that a conditional update matched no row, either
// because the row is missing or because its status did not permit the
// transition. Callers disambiguate by re-reading the row.
var ErrNoRowUpdated = errors.New("no row updated")

// ProjectPhaseRepository manages per-project phase progress rows.
type ProjectPhaseRepository struct {
	db *pgxpool.Pool
}

func NewProjectPhaseRepository(db *pgxpool.Pool) *ProjectPhaseRepository {
	return &ProjectPhaseRepository{db: db}
}

const projectPhaseColumns = `
        pp.id, pp.project_id, pp.phase_id, pp.status, pp.data,
        pp.started_at, pp.completed_at, pp.created_at, pp.updated_at,
        p.id, p.name, p.description, p.order_index, p.is_active, p.created_at, p.updated_at
`

func scanProjectPhase(row pgx.Row) (*model.ProjectPhase, error) {
	var pp model.ProjectPhase
	var phase model.Phase
	var data []byte
	err := row.Scan(
		&pp.ID, &pp.ProjectID, &pp.PhaseID, &pp.Status, &data,
		&pp.StartedAt, &pp.CompletedAt, &pp.CreatedAt, &pp.UpdatedAt,
		&phase.ID, &phase.Name, &phase.Description, &phase.OrderIndex,
		&phase.IsActive, &phase.CreatedAt, &phase.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pp.Data = map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &pp.Data); err != nil {
			return nil, fmt.Errorf("decode phase data: %w", err)
		}
	}
	pp.Phase = &phase
	return &pp, nil
}

// InitForProject creates one NotStarted row per catalog phase and flips the
// first to InProgress, all inside one transaction.
func (r *ProjectPhaseRepository) InitForProject(ctx context.Context, projectID uuid.UUID, phases []*model.Phase) error {
	if len(phases) == 0 {
		return errors.New("no phases to initialize")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin init tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
        INSERT INTO project_phases (id, project_id, phase_id, status, data, created_at, updated_at)
        VALUES ($1, $2, $3, $4, '{}'::jsonb, NOW(), NOW())
    `
	for i, p := range phases {
		status := model.PhaseNotStarted
		if i == 0 {
			status = model.PhaseInProgress
		}
		if _, err := tx.Exec(ctx, insert, uuid.New(), projectID, p.ID, status); err != nil {
			return fmt.Errorf("insert project phase: %w", err)
		}
	}

	start := `
        UPDATE project_phases SET started_at = NOW(), updated_at = NOW()
        WHERE project_id = $1 AND status = $2
    `
	if _, err := tx.Exec(ctx, start, projectID, model.PhaseInProgress); err != nil {
		return fmt.Errorf("start first phase: %w", err)
	}

	return tx.Commit(ctx)
}

// ListForProject returns the project's phase rows in catalog order.
func (r *ProjectPhaseRepository) ListForProject(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectPhase, error) {
	query := `
        SELECT` + projectPhaseColumns + `
        FROM project_phases pp
        JOIN phases p ON p.id = pp.phase_id
        WHERE pp.project_id = $1
        ORDER BY p.order_index
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ProjectPhase
	for rows.Next() {
		pp, err := scanProjectPhase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

// Get returns one (project, phase) row with its catalog phase joined in.
func (r *ProjectPhaseRepository) Get(ctx context.Context, projectID, phaseID uuid.UUID) (*model.ProjectPhase, error) {
	query := `
        SELECT` + projectPhaseColumns + `
        FROM project_phases pp
        JOIN phases p ON p.id = pp.phase_id
        WHERE pp.project_id = $1 AND pp.phase_id = $2
    `
	return scanProjectPhase(r.db.QueryRow(ctx, query, projectID, phaseID))
}

// GetCurrent returns the lowest-ordered InProgress phase, if any.
func (r *ProjectPhaseRepository) GetCurrent(ctx context.Context, projectID uuid.UUID) (*model.ProjectPhase, error) {
	query := `
        SELECT` + projectPhaseColumns + `
        FROM project_phases pp
        JOIN phases p ON p.id = pp.phase_id
        WHERE pp.project_id = $1 AND pp.status = $2
        ORDER BY p.order_index
        LIMIT 1
    `
	return scanProjectPhase(r.db.QueryRow(ctx, query, projectID, model.PhaseInProgress))
}

// NextAfter returns the phase row immediately following the given catalog
// position, or pgx.ErrNoRows when the position is the last one.
func (r *ProjectPhaseRepository) NextAfter(ctx context.Context, projectID uuid.UUID, orderIndex int) (*model.ProjectPhase, error) {
	query := `
        SELECT` + projectPhaseColumns + `
        FROM project_phases pp
        JOIN phases p ON p.id = pp.phase_id
        WHERE pp.project_id = $1 AND p.order_index > $2
        ORDER BY p.order_index
        LIMIT 1
    `
	return scanProjectPhase(r.db.QueryRow(ctx, query, projectID, orderIndex))
}

// StartPhase moves a NotStarted phase to InProgress. The status predicate
// makes the transition atomic; a row in any other state is left untouched
// and ErrNoRowUpdated is returned.
func (r *ProjectPhaseRepository) StartPhase(ctx context.Context, projectID, phaseID uuid.UUID) error {
	query := `
        UPDATE project_phases
        SET status = $3, started_at = NOW(), updated_at = NOW()
        WHERE project_id = $1 AND phase_id = $2 AND status = $4
    `
	tag, err := r.db.Exec(ctx, query, projectID, phaseID, model.PhaseInProgress, model.PhaseNotStarted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

// CompletePhase marks a phase Completed from any non-terminal state.
// Completing an already-Completed phase matches no row.
func (r *ProjectPhaseRepository) CompletePhase(ctx context.Context, projectID, phaseID uuid.UUID) error {
	query := `
        UPDATE project_phases
        SET status = $3, completed_at = NOW(), updated_at = NOW()
        WHERE project_id = $1 AND phase_id = $2 AND status <> $3
    `
	tag, err := r.db.Exec(ctx, query, projectID, phaseID, model.PhaseCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

// MergeData shallow-merges the given keys into the phase's data document.
// Existing keys not present in the patch survive; colliding keys are
// overwritten by the patch.
func (r *ProjectPhaseRepository) MergeData(ctx context.Context, projectID, phaseID uuid.UUID, patch map[string]any) error {
	encoded, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode phase data: %w", err)
	}

	query := `
        UPDATE project_phases
        SET data = data || $3::jsonb, updated_at = NOW()
        WHERE project_id = $1 AND phase_id = $2
    `
	tag, err := r.db.Exec(ctx, query, projectID, phaseID, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

// MoveToNext completes the current InProgress phase and starts the next one
// by catalog order, atomically. When the current phase is the last one,
// nothing changes and pgx.ErrNoRows is returned; the final phase stays
// InProgress. The completion carries a status predicate so two concurrent
// advances cannot both succeed; the loser sees ErrNoRowUpdated.
func (r *ProjectPhaseRepository) MoveToNext(ctx context.Context, projectID uuid.UUID, current *model.ProjectPhase) (*model.ProjectPhase, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin advance tx: %w", err)
	}
	defer tx.Rollback(ctx)

	next := `
        SELECT pp.phase_id
        FROM project_phases pp
        JOIN phases p ON p.id = pp.phase_id
        WHERE pp.project_id = $1 AND p.order_index > $2
        ORDER BY p.order_index
        LIMIT 1
    `
	var nextPhaseID uuid.UUID
	err = tx.QueryRow(ctx, next, projectID, current.Phase.OrderIndex).Scan(&nextPhaseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pgx.ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	complete := `
        UPDATE project_phases
        SET status = $3, completed_at = NOW(), updated_at = NOW()
        WHERE project_id = $1 AND phase_id = $2 AND status = $4
    `
	tag, err := tx.Exec(ctx, complete, projectID, current.PhaseID, model.PhaseCompleted, model.PhaseInProgress)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRowUpdated
	}

	// The next phase is (re)opened whatever its state: a phase completed
	// out of order becomes the current phase again.
	start := `
        UPDATE project_phases
        SET status = $3, started_at = NOW(), completed_at = NULL, updated_at = NOW()
        WHERE project_id = $1 AND phase_id = $2
    `
	if _, err := tx.Exec(ctx, start, projectID, nextPhaseID, model.PhaseInProgress); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.Get(ctx, projectID, nextPhaseID)
}
