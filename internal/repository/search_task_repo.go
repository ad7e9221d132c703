package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dassyor/internal/model"
)

type SearchTaskRepository struct {
	db *pgxpool.Pool
}

func NewSearchTaskRepository(db *pgxpool.Pool) *SearchTaskRepository {
	return &SearchTaskRepository{db: db}
}

// Pool exposes the underlying pool for transactional writes alongside the
// outbox.
func (r *SearchTaskRepository) Pool() *pgxpool.Pool {
	return r.db
}

// CreateInTx inserts a pending task inside the caller's transaction so the
// task row and its outbox event commit together.
func (r *SearchTaskRepository) CreateInTx(ctx context.Context, tx pgx.Tx, t *model.SearchTask) error {
	query := `
        INSERT INTO search_tasks (task_id, email, query, problem_statement, target_audience, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, created_at
    `
	return tx.QueryRow(ctx, query,
		t.TaskID, t.Email, t.Query, t.ProblemStatement, t.TargetAudience, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *SearchTaskRepository) GetByTaskID(ctx context.Context, taskID string) (*model.SearchTask, error) {
	query := `
        SELECT id, task_id, email, query, problem_statement, target_audience,
               analysis, status, created_at, completed_at
        FROM search_tasks
        WHERE task_id = $1
    `
	var t model.SearchTask
	var analysis *string
	err := r.db.QueryRow(ctx, query, taskID).Scan(
		&t.ID, &t.TaskID, &t.Email, &t.Query, &t.ProblemStatement, &t.TargetAudience,
		&analysis, &t.Status, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		t.Analysis = *analysis
	}
	return &t, nil
}

// List returns recent tasks, newest first, optionally filtered by
// requester email and status.
func (r *SearchTaskRepository) List(ctx context.Context, email, status string, limit int) ([]*model.SearchTask, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
        SELECT id, task_id, email, query, problem_statement, target_audience,
               analysis, status, created_at, completed_at
        FROM search_tasks
        WHERE ($1 = '' OR email = $1)
          AND ($2 = '' OR status = $2)
        ORDER BY created_at DESC
        LIMIT $3
    `
	rows, err := r.db.Query(ctx, query, email, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SearchTask
	for rows.Next() {
		var t model.SearchTask
		var analysis *string
		err := rows.Scan(
			&t.ID, &t.TaskID, &t.Email, &t.Query, &t.ProblemStatement, &t.TargetAudience,
			&analysis, &t.Status, &t.CreatedAt, &t.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		if analysis != nil {
			t.Analysis = *analysis
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// MarkSuccess stores the analysis and the matched posts atomically.
func (r *SearchTaskRepository) MarkSuccess(ctx context.Context, taskID, analysis string, posts []*model.RelevantPost) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin result tx: %w", err)
	}
	defer tx.Rollback(ctx)

	update := `
        UPDATE search_tasks
        SET status = $2, analysis = $3, completed_at = NOW()
        WHERE task_id = $1
    `
	tag, err := tx.Exec(ctx, update, taskID, model.SearchTaskSuccess, analysis)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}

	insert := `
        INSERT INTO relevant_posts (task_id, title, link, created_at)
        VALUES ($1, $2, $3, NOW())
    `
	for _, p := range posts {
		if _, err := tx.Exec(ctx, insert, taskID, p.Title, p.Link); err != nil {
			return fmt.Errorf("insert relevant post: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *SearchTaskRepository) MarkFailure(ctx context.Context, taskID string) error {
	query := `
        UPDATE search_tasks
        SET status = $2, completed_at = NOW()
        WHERE task_id = $1
    `
	tag, err := r.db.Exec(ctx, query, taskID, model.SearchTaskFailure)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowUpdated
	}
	return nil
}

func (r *SearchTaskRepository) ListPosts(ctx context.Context, taskID string) ([]*model.RelevantPost, error) {
	query := `
        SELECT id, task_id, title, link, created_at
        FROM relevant_posts
        WHERE task_id = $1
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RelevantPost
	for rows.Next() {
		var p model.RelevantPost
		if err := rows.Scan(&p.ID, &p.TaskID, &p.Title, &p.Link, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
