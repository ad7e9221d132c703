package phase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dassyor/internal/model"
	"dassyor/internal/repository"
	"dassyor/pkg/metrics"
)

var (
	ErrEmptyCatalog      = errors.New("phase catalog is empty")
	ErrPhaseNotFound     = errors.New("phase not found")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrNoCurrentPhase    = errors.New("no current phase")
	ErrNoNextPhase       = errors.New("no next phase available")
)

// CatalogRepo is the slice of the phase catalog store the service needs.
type CatalogRepo interface {
	Count(ctx context.Context) (int, error)
	InsertBatch(ctx context.Context, phases []*model.Phase) error
	ListActive(ctx context.Context) ([]*model.Phase, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Phase, error)
}

// ProgressRepo is the per-project phase instance store.
type ProgressRepo interface {
	InitForProject(ctx context.Context, projectID uuid.UUID, phases []*model.Phase) error
	ListForProject(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectPhase, error)
	Get(ctx context.Context, projectID, phaseID uuid.UUID) (*model.ProjectPhase, error)
	GetCurrent(ctx context.Context, projectID uuid.UUID) (*model.ProjectPhase, error)
	StartPhase(ctx context.Context, projectID, phaseID uuid.UUID) error
	CompletePhase(ctx context.Context, projectID, phaseID uuid.UUID) error
	MergeData(ctx context.Context, projectID, phaseID uuid.UUID, patch map[string]any) error
	MoveToNext(ctx context.Context, projectID uuid.UUID, current *model.ProjectPhase) (*model.ProjectPhase, error)
}

type Service struct {
	catalog  CatalogRepo
	progress ProgressRepo
	logger   *zap.Logger
}

func NewService(catalog CatalogRepo, progress ProgressRepo, logger *zap.Logger) *Service {
	return &Service{catalog: catalog, progress: progress, logger: logger}
}

// defaultCatalog returns the fixed ten-stage workflow template.
func defaultCatalog() []*model.Phase {
	specs := []struct {
		name, description string
	}{
		{"Identify problem", "Identify and define the core problem to solve"},
		{"Problem scale", "Understand the scale and scope of the problem"},
		{"Problem impact", "Assess the impact and consequences of the problem"},
		{"Current solutions", "Research and analyze existing solutions"},
		{"Audience targeting", "Define and identify the target audience"},
		{"Define product", "Define the product requirements and specifications"},
		{"Verify demand", "Validate market demand and product-market fit"},
		{"Business strategy", "Develop the business model and strategy"},
		{"Branding", "Create brand identity and messaging"},
		{"Build product", "Develop and build the actual product"},
	}

	phases := make([]*model.Phase, 0, len(specs))
	for i, s := range specs {
		phases = append(phases, &model.Phase{
			ID:          uuid.New(),
			Name:        s.name,
			Description: s.description,
			OrderIndex:  i + 1,
			IsActive:    true,
		})
	}
	return phases
}

// SeedDefaultPhases populates the catalog with the default template.
// Idempotent: when any row already exists the call is a no-op and returns
// the existing catalog unchanged.
func (s *Service) SeedDefaultPhases(ctx context.Context) ([]*model.Phase, error) {
	count, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count phases: %w", err)
	}
	if count > 0 {
		s.logger.Info("phase catalog already seeded", zap.Int("count", count))
		return s.catalog.ListActive(ctx)
	}

	phases := defaultCatalog()
	if err := s.catalog.InsertBatch(ctx, phases); err != nil {
		return nil, fmt.Errorf("seed phases: %w", err)
	}

	s.logger.Info("seeded default phases", zap.Int("count", len(phases)))
	return phases, nil
}

// ListCatalog returns all active catalog phases in order.
func (s *Service) ListCatalog(ctx context.Context) ([]*model.Phase, error) {
	return s.catalog.ListActive(ctx)
}

// InitializeProjectPhases creates one instance per catalog phase for a new
// project, first phase InProgress, the rest NotStarted. All or nothing.
func (s *Service) InitializeProjectPhases(ctx context.Context, projectID uuid.UUID) error {
	phases, err := s.catalog.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	if len(phases) == 0 {
		return ErrEmptyCatalog
	}

	if err := s.progress.InitForProject(ctx, projectID, phases); err != nil {
		return fmt.Errorf("initialize phases: %w", err)
	}

	s.logger.Info("initialized project phases",
		zap.String("project_id", projectID.String()),
		zap.Int("count", len(phases)))
	return nil
}

// GetProjectPhases returns the project's instances in catalog order.
func (s *Service) GetProjectPhases(ctx context.Context, projectID uuid.UUID) ([]*model.ProjectPhase, error) {
	return s.progress.ListForProject(ctx, projectID)
}

// GetCurrentPhase returns the lowest-ordered InProgress instance.
func (s *Service) GetCurrentPhase(ctx context.Context, projectID uuid.UUID) (*model.ProjectPhase, error) {
	current, err := s.progress.GetCurrent(ctx, projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCurrentPhase
	}
	if err != nil {
		return nil, err
	}
	return current, nil
}

// StartPhase moves a NotStarted instance to InProgress. A missing instance
// is ErrPhaseNotFound; an instance in any other state is
// ErrInvalidTransition.
func (s *Service) StartPhase(ctx context.Context, projectID, phaseID uuid.UUID) (*model.ProjectPhase, error) {
	err := s.progress.StartPhase(ctx, projectID, phaseID)
	if errors.Is(err, repository.ErrNoRowUpdated) {
		if _, getErr := s.progress.Get(ctx, projectID, phaseID); getErr != nil {
			return nil, ErrPhaseNotFound
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	metrics.IncrementPhaseTransition("start")
	return s.progress.Get(ctx, projectID, phaseID)
}

// CompletePhase marks an instance Completed from any non-terminal state.
// Out-of-order completion is permitted; re-completing is
// ErrInvalidTransition.
func (s *Service) CompletePhase(ctx context.Context, projectID, phaseID uuid.UUID) (*model.ProjectPhase, error) {
	err := s.progress.CompletePhase(ctx, projectID, phaseID)
	if errors.Is(err, repository.ErrNoRowUpdated) {
		if _, getErr := s.progress.Get(ctx, projectID, phaseID); getErr != nil {
			return nil, ErrPhaseNotFound
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	metrics.IncrementPhaseTransition("complete")
	return s.progress.Get(ctx, projectID, phaseID)
}

// UpdatePhaseData shallow-merges the patch into the instance's data
// payload. Keys absent from the patch survive.
func (s *Service) UpdatePhaseData(ctx context.Context, projectID, phaseID uuid.UUID, patch map[string]any) (*model.ProjectPhase, error) {
	if patch == nil {
		patch = map[string]any{}
	}

	err := s.progress.MergeData(ctx, projectID, phaseID, patch)
	if errors.Is(err, repository.ErrNoRowUpdated) {
		return nil, ErrPhaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.progress.Get(ctx, projectID, phaseID)
}

// MoveToNextPhase completes the current InProgress instance and starts the
// next by catalog order. On the final phase nothing changes and
// ErrNoNextPhase is returned; the project status is never touched. A
// concurrent advance that loses the race gets ErrNoCurrentPhase.
func (s *Service) MoveToNextPhase(ctx context.Context, projectID uuid.UUID) (*model.ProjectPhase, error) {
	current, err := s.GetCurrentPhase(ctx, projectID)
	if err != nil {
		return nil, err
	}

	next, err := s.progress.MoveToNext(ctx, projectID, current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoNextPhase
	}
	if errors.Is(err, repository.ErrNoRowUpdated) {
		// Someone else advanced first; our snapshot is stale.
		return nil, ErrNoCurrentPhase
	}
	if err != nil {
		return nil, err
	}

	metrics.IncrementPhaseTransition("advance")
	s.logger.Info("advanced to next phase",
		zap.String("project_id", projectID.String()),
		zap.String("phase", next.Phase.Name))
	return next, nil
}
