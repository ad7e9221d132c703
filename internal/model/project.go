package model

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "InProgress"
	ProjectCompleted  ProjectStatus = "Completed"
)

type Project struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Status        ProjectStatus `json:"status"`
	OwnerID       uuid.UUID     `json:"ownerId"`
	StartDate     time.Time     `json:"startDate"`
	EndDate       *time.Time    `json:"endDate,omitempty"`
	IsDeleted     bool          `json:"isDeleted"`
	DeletedAt     *time.Time    `json:"deletedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Collaborators []uuid.UUID   `json:"collaborators,omitempty"`
}

// ProjectCollaborator links a user to a project. Rows are reused across
// remove/re-add cycles via the is_active flag; (project_id, user_id) is
// unique.
type ProjectCollaborator struct {
	ID        int64      `json:"id"`
	ProjectID uuid.UUID  `json:"projectId"`
	UserID    uuid.UUID  `json:"userId"`
	IsActive  bool       `json:"isActive"`
	JoinedAt  time.Time  `json:"joinedAt"`
	LeftAt    *time.Time `json:"leftAt,omitempty"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string        `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string        `json:"description"`
	Status      *ProjectStatus `json:"status" binding:"omitempty,oneof=InProgress Completed"`
}

type AddCollaboratorRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

type InviteCollaboratorRequest struct {
	Email string `json:"email" binding:"required,email"`
}
