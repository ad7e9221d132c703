package model

import (
	"time"

	"github.com/google/uuid"
)

// PhaseStatus is the lifecycle state of a project's phase instance.
type PhaseStatus string

const (
	PhaseNotStarted PhaseStatus = "NotStarted"
	PhaseInProgress PhaseStatus = "InProgress"
	PhaseCompleted  PhaseStatus = "Completed"
)

// Phase is a global catalog entry: a named, ordered stage of the workflow
// template. Seeded once, immutable afterwards.
type Phase struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"orderIndex"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectPhase is a project's live record of progress through one catalog
// phase. Exactly one row exists per (project, phase) pair.
type ProjectPhase struct {
	ID          uuid.UUID      `json:"id"`
	ProjectID   uuid.UUID      `json:"projectId"`
	PhaseID     uuid.UUID      `json:"phaseId"`
	Status      PhaseStatus    `json:"status"`
	Data        map[string]any `json:"data"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	// Catalog phase joined in for ordering and display.
	Phase *Phase `json:"phase,omitempty"`
}
