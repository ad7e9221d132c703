package project

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dassyor/internal/mailer"
	"dassyor/internal/model"
	"dassyor/internal/repository"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrAlreadyCollaborator  = errors.New("user is already a collaborator")
	ErrNotCollaborator      = errors.New("user is not an active collaborator")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationExpired    = errors.New("invitation expired")
	ErrInvitationNotPending = errors.New("invitation already settled")
)

const invitationTTL = 7 * 24 * time.Hour

// PhaseInitializer seeds the phase instances for a fresh project.
type PhaseInitializer interface {
	InitializeProjectPhases(ctx context.Context, projectID uuid.UUID) error
}

type ProjectRepo interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type CollaboratorRepo interface {
	Find(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectCollaborator, error)
	IsActiveCollaborator(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	Insert(ctx context.Context, projectID, userID uuid.UUID) error
	Reactivate(ctx context.Context, projectID, userID uuid.UUID) error
	Deactivate(ctx context.Context, projectID, userID uuid.UUID) error
	ListActiveUserIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
}

type InvitationRepo interface {
	Create(ctx context.Context, inv *model.ProjectInvitation) error
	FindByToken(ctx context.Context, token string) (*model.ProjectInvitation, error)
	FindPending(ctx context.Context, projectID uuid.UUID, email string) (*model.ProjectInvitation, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	MarkRejected(ctx context.Context, id uuid.UUID) error
}

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
}

type Service struct {
	projects      ProjectRepo
	collaborators CollaboratorRepo
	invitations   InvitationRepo
	users         UserRepo
	phases        PhaseInitializer
	mail          mailer.Sender
	appName       string
	clientAppURL  string
	logger        *zap.Logger
}

func NewService(
	projects ProjectRepo,
	collaborators CollaboratorRepo,
	invitations InvitationRepo,
	users UserRepo,
	phases PhaseInitializer,
	mail mailer.Sender,
	appName, clientAppURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		projects:      projects,
		collaborators: collaborators,
		invitations:   invitations,
		users:         users,
		phases:        phases,
		mail:          mail,
		appName:       appName,
		clientAppURL:  clientAppURL,
		logger:        logger,
	}
}

// Authorize resolves whether the caller may touch the project. Admins
// bypass ownership; otherwise the caller must own the project or be an
// active collaborator. A missing project and a denied caller both come
// back as ErrProjectNotFound so callers cannot probe for project ids.
func (s *Service) Authorize(ctx context.Context, projectID, userID uuid.UUID, role string) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	if role == model.RoleAdmin || p.OwnerID == userID {
		return p, nil
	}

	active, err := s.collaborators.IsActiveCollaborator(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

// Create inserts the project and initializes its phases. A phase
// initialization failure is logged and swallowed; the project survives
// with zero phase instances.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req model.CreateProjectRequest) (*model.Project, error) {
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	p := &model.Project{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Status:      model.ProjectInProgress,
		OwnerID:     ownerID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	if err := s.phases.InitializeProjectPhases(ctx, p.ID); err != nil {
		s.logger.Error("phase initialization failed, project kept without phases",
			zap.String("project_id", p.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("owner_id", ownerID.String()))
	return p, nil
}

func (s *Service) Get(ctx context.Context, projectID, userID uuid.UUID, role string) (*model.Project, error) {
	p, err := s.Authorize(ctx, projectID, userID, role)
	if err != nil {
		return nil, err
	}

	ids, err := s.collaborators.ListActiveUserIDs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	p.Collaborators = ids
	return p, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*model.Project, error) {
	return s.projects.ListForUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, projectID, userID uuid.UUID, role string, req model.UpdateProjectRequest) (*model.Project, error) {
	p, err := s.Authorize(ctx, projectID, userID, role)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Status != nil {
		p.Status = *req.Status
		if p.Status == model.ProjectCompleted && p.EndDate == nil {
			now := time.Now().UTC()
			p.EndDate = &now
		}
	}

	if err := s.projects.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNoRowUpdated) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID uuid.UUID, role string) error {
	if _, err := s.Authorize(ctx, projectID, userID, role); err != nil {
		return err
	}

	if err := s.projects.SoftDelete(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNoRowUpdated) {
			return ErrProjectNotFound
		}
		return err
	}

	s.logger.Info("project soft-deleted", zap.String("project_id", projectID.String()))
	return nil
}

// AddCollaborator grants a user access. An inactive row from an earlier
// removal is reactivated instead of inserting a duplicate.
func (s *Service) AddCollaborator(ctx context.Context, projectID, callerID uuid.UUID, role string, userID uuid.UUID) error {
	if _, err := s.Authorize(ctx, projectID, callerID, role); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return fmt.Errorf("resolve collaborator: %w", err)
	}

	existing, err := s.collaborators.Find(ctx, projectID, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if existing != nil {
		if existing.IsActive {
			return ErrAlreadyCollaborator
		}
		return s.collaborators.Reactivate(ctx, projectID, userID)
	}
	return s.collaborators.Insert(ctx, projectID, userID)
}

func (s *Service) RemoveCollaborator(ctx context.Context, projectID, callerID uuid.UUID, role string, userID uuid.UUID) error {
	if _, err := s.Authorize(ctx, projectID, callerID, role); err != nil {
		return err
	}

	if err := s.collaborators.Deactivate(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNoRowUpdated) {
			return ErrNotCollaborator
		}
		return err
	}
	return nil
}

// Invite emails a tokened collaboration invitation valid for seven days.
// A pending invitation for the same (project, email) pair is reused.
func (s *Service) Invite(ctx context.Context, projectID, callerID uuid.UUID, role, email string) (*model.ProjectInvitation, error) {
	p, err := s.Authorize(ctx, projectID, callerID, role)
	if err != nil {
		return nil, err
	}

	inviter, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("resolve inviter: %w", err)
	}

	inv, err := s.invitations.FindPending(ctx, projectID, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if inv == nil || inv.IsExpired() {
		token, err := generateToken()
		if err != nil {
			return nil, err
		}
		inv = &model.ProjectInvitation{
			ID:           uuid.New(),
			ProjectID:    projectID,
			InviterID:    callerID,
			InviteeEmail: email,
			Token:        token,
			Status:       model.InvitationPending,
			ExpiresAt:    time.Now().UTC().Add(invitationTTL),
		}
		if err := s.invitations.Create(ctx, inv); err != nil {
			return nil, fmt.Errorf("create invitation: %w", err)
		}
	}

	acceptURL := fmt.Sprintf("%s/invitations/accept?token=%s", s.clientAppURL, inv.Token)
	rejectURL := fmt.Sprintf("%s/invitations/reject?token=%s", s.clientAppURL, inv.Token)
	body := mailer.InvitationEmail(s.appName, inviter.DisplayName(), p.Name, acceptURL, rejectURL)
	if err := s.mail.Send(email, fmt.Sprintf("Invitation to collaborate on %s", p.Name), body); err != nil {
		s.logger.Error("invitation email failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("send invitation: %w", err)
	}

	return inv, nil
}

// AcceptInvitation settles a pending invitation and adds the invitee as a
// collaborator. Unknown emails get a placeholder account with a pending
// password-setup token.
func (s *Service) AcceptInvitation(ctx context.Context, token string) error {
	inv, err := s.resolvePending(ctx, token)
	if err != nil {
		return err
	}

	invitee, err := s.users.FindByEmail(ctx, inv.InviteeEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		invitee, err = s.createPlaceholderUser(ctx, inv.InviteeEmail)
	}
	if err != nil {
		return err
	}

	existing, err := s.collaborators.Find(ctx, inv.ProjectID, invitee.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	switch {
	case existing == nil:
		err = s.collaborators.Insert(ctx, inv.ProjectID, invitee.ID)
	case !existing.IsActive:
		err = s.collaborators.Reactivate(ctx, inv.ProjectID, invitee.ID)
	}
	if err != nil {
		return err
	}

	if err := s.invitations.MarkAccepted(ctx, inv.ID); err != nil {
		if errors.Is(err, repository.ErrNoRowUpdated) {
			return ErrInvitationNotPending
		}
		return err
	}

	s.logger.Info("invitation accepted",
		zap.String("project_id", inv.ProjectID.String()),
		zap.String("email", inv.InviteeEmail))
	return nil
}

func (s *Service) RejectInvitation(ctx context.Context, token string) error {
	inv, err := s.resolvePending(ctx, token)
	if err != nil {
		return err
	}

	if err := s.invitations.MarkRejected(ctx, inv.ID); err != nil {
		if errors.Is(err, repository.ErrNoRowUpdated) {
			return ErrInvitationNotPending
		}
		return err
	}
	return nil
}

func (s *Service) resolvePending(ctx context.Context, token string) (*model.ProjectInvitation, error) {
	inv, err := s.invitations.FindByToken(ctx, token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, ErrInvitationNotPending
	}
	if inv.IsExpired() {
		return nil, ErrInvitationExpired
	}
	return inv, nil
}

func (s *Service) createPlaceholderUser(ctx context.Context, email string) (*model.User, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	expiry := time.Now().UTC().Add(invitationTTL)

	u := &model.User{
		ID:                           uuid.New(),
		Username:                     email,
		Email:                        email,
		Role:                         model.RoleClient,
		PasswordHash:                 "!",
		EmailConfirmationToken:       &token,
		EmailConfirmationTokenExpiry: &expiry,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create placeholder user: %w", err)
	}
	return u, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
