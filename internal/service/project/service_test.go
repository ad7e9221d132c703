package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dassyor/internal/model"
	"dassyor/internal/repository"
)

type fakeProjects struct {
	byID map[uuid.UUID]*model.Project
}

func (f *fakeProjects) Create(ctx context.Context, p *model.Project) error {
	p.CreatedAt = time.Now()
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProjects) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, ok := f.byID[id]
	if !ok || p.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeProjects) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Project, error) {
	var out []*model.Project
	for _, p := range f.byID {
		if !p.IsDeleted && p.OwnerID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(ctx context.Context, p *model.Project) error {
	if _, ok := f.byID[p.ID]; !ok {
		return repository.ErrNoRowUpdated
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProjects) SoftDelete(ctx context.Context, id uuid.UUID) error {
	p, ok := f.byID[id]
	if !ok || p.IsDeleted {
		return repository.ErrNoRowUpdated
	}
	p.IsDeleted = true
	return nil
}

type collabKey struct{ project, user uuid.UUID }

type fakeCollaborators struct {
	rows map[collabKey]*model.ProjectCollaborator
}

func (f *fakeCollaborators) Find(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectCollaborator, error) {
	c, ok := f.rows[collabKey{projectID, userID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCollaborators) IsActiveCollaborator(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	c, ok := f.rows[collabKey{projectID, userID}]
	return ok && c.IsActive, nil
}

func (f *fakeCollaborators) Insert(ctx context.Context, projectID, userID uuid.UUID) error {
	f.rows[collabKey{projectID, userID}] = &model.ProjectCollaborator{
		ID: int64(len(f.rows) + 1), ProjectID: projectID, UserID: userID, IsActive: true, JoinedAt: time.Now(),
	}
	return nil
}

func (f *fakeCollaborators) Reactivate(ctx context.Context, projectID, userID uuid.UUID) error {
	c, ok := f.rows[collabKey{projectID, userID}]
	if !ok || c.IsActive {
		return repository.ErrNoRowUpdated
	}
	c.IsActive = true
	c.LeftAt = nil
	return nil
}

func (f *fakeCollaborators) Deactivate(ctx context.Context, projectID, userID uuid.UUID) error {
	c, ok := f.rows[collabKey{projectID, userID}]
	if !ok || !c.IsActive {
		return repository.ErrNoRowUpdated
	}
	now := time.Now()
	c.IsActive = false
	c.LeftAt = &now
	return nil
}

func (f *fakeCollaborators) ListActiveUserIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for k, c := range f.rows {
		if k.project == projectID && c.IsActive {
			out = append(out, k.user)
		}
	}
	return out, nil
}

type fakeInvitations struct {
	byToken map[string]*model.ProjectInvitation
}

func (f *fakeInvitations) Create(ctx context.Context, inv *model.ProjectInvitation) error {
	inv.CreatedAt = time.Now()
	f.byToken[inv.Token] = inv
	return nil
}

func (f *fakeInvitations) FindByToken(ctx context.Context, token string) (*model.ProjectInvitation, error) {
	inv, ok := f.byToken[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return inv, nil
}

func (f *fakeInvitations) FindPending(ctx context.Context, projectID uuid.UUID, email string) (*model.ProjectInvitation, error) {
	for _, inv := range f.byToken {
		if inv.ProjectID == projectID && inv.InviteeEmail == email && inv.Status == model.InvitationPending {
			return inv, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeInvitations) mark(id uuid.UUID, status model.InvitationStatus) error {
	for _, inv := range f.byToken {
		if inv.ID == id {
			if inv.Status != model.InvitationPending {
				return repository.ErrNoRowUpdated
			}
			inv.Status = status
			return nil
		}
	}
	return repository.ErrNoRowUpdated
}

func (f *fakeInvitations) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	return f.mark(id, model.InvitationAccepted)
}

func (f *fakeInvitations) MarkRejected(ctx context.Context, id uuid.UUID) error {
	return f.mark(id, model.InvitationRejected)
}

type fakeUsers struct {
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) CreateUser(ctx context.Context, u *model.User) error {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (f *fakeMailer) Send(to, subject, htmlBody string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) BulkSend(recipients []string, subject, htmlBody string) error {
	for _, r := range recipients {
		if err := f.Send(r, subject, htmlBody); err != nil {
			return err
		}
	}
	return nil
}

type fakePhaseInit struct {
	calls int
	fail  bool
}

func (f *fakePhaseInit) InitializeProjectPhases(ctx context.Context, projectID uuid.UUID) error {
	f.calls++
	if f.fail {
		return errors.New("catalog unavailable")
	}
	return nil
}

type fixture struct {
	svc     *Service
	users   *fakeUsers
	collabs *fakeCollaborators
	invites *fakeInvitations
	mail    *fakeMailer
	phases  *fakePhaseInit
	owner   *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := &fakeUsers{byID: map[uuid.UUID]*model.User{}, byEmail: map[string]*model.User{}}
	collabs := &fakeCollaborators{rows: map[collabKey]*model.ProjectCollaborator{}}
	invites := &fakeInvitations{byToken: map[string]*model.ProjectInvitation{}}
	mail := &fakeMailer{}
	phases := &fakePhaseInit{}

	owner := &model.User{ID: uuid.New(), Username: "owner", Email: "owner@example.com", Role: model.RoleClient}
	require.NoError(t, users.CreateUser(context.Background(), owner))

	svc := NewService(
		&fakeProjects{byID: map[uuid.UUID]*model.Project{}},
		collabs, invites, users, phases, mail,
		"Dassyor", "https://app.example.com", zap.NewNop(),
	)
	return &fixture{svc: svc, users: users, collabs: collabs, invites: invites, mail: mail, phases: phases, owner: owner}
}

func TestCreateInitializesPhases(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectInProgress, p.Status)
	assert.Equal(t, 1, fx.phases.calls)
}

func TestCreateSurvivesPhaseInitFailure(t *testing.T) {
	fx := newFixture(t)
	fx.phases.fail = true
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	// The project exists even though it has no phase instances.
	got, err := fx.svc.Get(ctx, p.ID, fx.owner.ID, model.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, "Rocket", got.Name)
}

func TestAccessPolicyCollapse(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	outsider := &model.User{ID: uuid.New(), Username: "eve", Email: "eve@example.com", Role: model.RoleClient}
	require.NoError(t, fx.users.CreateUser(ctx, outsider))

	// Outsider gets the same error as a request for a nonexistent project.
	_, errDenied := fx.svc.Get(ctx, p.ID, outsider.ID, model.RoleClient)
	_, errMissing := fx.svc.Get(ctx, uuid.New(), outsider.ID, model.RoleClient)
	assert.ErrorIs(t, errDenied, ErrProjectNotFound)
	assert.ErrorIs(t, errMissing, ErrProjectNotFound)

	// Admins bypass ownership.
	_, err = fx.svc.Get(ctx, p.ID, outsider.ID, model.RoleAdmin)
	assert.NoError(t, err)

	// Active collaborators get through; removed ones do not.
	require.NoError(t, fx.svc.AddCollaborator(ctx, p.ID, fx.owner.ID, model.RoleClient, outsider.ID))
	_, err = fx.svc.Get(ctx, p.ID, outsider.ID, model.RoleClient)
	assert.NoError(t, err)

	require.NoError(t, fx.svc.RemoveCollaborator(ctx, p.ID, fx.owner.ID, model.RoleClient, outsider.ID))
	_, err = fx.svc.Get(ctx, p.ID, outsider.ID, model.RoleClient)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestAddCollaboratorReactivates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	helper := &model.User{ID: uuid.New(), Username: "helper", Email: "helper@example.com", Role: model.RoleClient}
	require.NoError(t, fx.users.CreateUser(ctx, helper))

	require.NoError(t, fx.svc.AddCollaborator(ctx, p.ID, fx.owner.ID, model.RoleClient, helper.ID))
	err = fx.svc.AddCollaborator(ctx, p.ID, fx.owner.ID, model.RoleClient, helper.ID)
	assert.ErrorIs(t, err, ErrAlreadyCollaborator)

	require.NoError(t, fx.svc.RemoveCollaborator(ctx, p.ID, fx.owner.ID, model.RoleClient, helper.ID))
	require.NoError(t, fx.svc.AddCollaborator(ctx, p.ID, fx.owner.ID, model.RoleClient, helper.ID))

	// Still a single row.
	assert.Len(t, fx.collabs.rows, 1)
}

func TestInviteAndAccept(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	inv, err := fx.svc.Invite(ctx, p.ID, fx.owner.ID, model.RoleClient, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.InvitationPending, inv.Status)
	assert.Contains(t, fx.mail.sent, "new@example.com")

	// Inviting again reuses the pending invitation.
	again, err := fx.svc.Invite(ctx, p.ID, fx.owner.ID, model.RoleClient, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, inv.Token, again.Token)

	require.NoError(t, fx.svc.AcceptInvitation(ctx, inv.Token))
	assert.Equal(t, model.InvitationAccepted, inv.Status)

	// A placeholder account was created and is now an active collaborator.
	invitee, err := fx.users.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	active, err := fx.collabs.IsActiveCollaborator(ctx, p.ID, invitee.ID)
	require.NoError(t, err)
	assert.True(t, active)

	// A settled invitation cannot be accepted twice.
	assert.ErrorIs(t, fx.svc.AcceptInvitation(ctx, inv.Token), ErrInvitationNotPending)
}

func TestRejectInvitation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	inv, err := fx.svc.Invite(ctx, p.ID, fx.owner.ID, model.RoleClient, "no@example.com")
	require.NoError(t, err)

	require.NoError(t, fx.svc.RejectInvitation(ctx, inv.Token))
	assert.Equal(t, model.InvitationRejected, inv.Status)

	assert.ErrorIs(t, fx.svc.AcceptInvitation(ctx, inv.Token), ErrInvitationNotPending)
	assert.ErrorIs(t, fx.svc.RejectInvitation(ctx, "bogus"), ErrInvitationNotFound)
}

func TestExpiredInvitation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	inv, err := fx.svc.Invite(ctx, p.ID, fx.owner.ID, model.RoleClient, "slow@example.com")
	require.NoError(t, err)

	inv.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	assert.ErrorIs(t, fx.svc.AcceptInvitation(ctx, inv.Token), ErrInvitationExpired)
}

func TestUpdateStampsEndDateOnCompletion(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	done := model.ProjectCompleted
	updated, err := fx.svc.Update(ctx, p.ID, fx.owner.ID, model.RoleClient, model.UpdateProjectRequest{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectCompleted, updated.Status)
	assert.NotNil(t, updated.EndDate)
}

func TestDeleteHidesProject(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.owner.ID, model.CreateProjectRequest{Name: "Rocket"})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(ctx, p.ID, fx.owner.ID, model.RoleClient))
	_, err = fx.svc.Get(ctx, p.ID, fx.owner.ID, model.RoleClient)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
