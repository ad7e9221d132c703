package model

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// ProjectInvitation is a tokened email invitation to collaborate on a
// project. Invitations expire seven days after creation.
type ProjectInvitation struct {
	ID           uuid.UUID        `json:"id"`
	ProjectID    uuid.UUID        `json:"projectId"`
	InviterID    uuid.UUID        `json:"inviterId"`
	InviteeEmail string           `json:"inviteeEmail"`
	Token        string           `json:"-"`
	Status       InvitationStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	AcceptedAt   *time.Time       `json:"acceptedAt,omitempty"`
	RejectedAt   *time.Time       `json:"rejectedAt,omitempty"`
}

func (i *ProjectInvitation) IsExpired() bool {
	return time.Now().UTC().After(i.ExpiresAt)
}
