package models

import "time"

// InviteStatus is the lifecycle state of an Invite. Transitions leave pending exactly once.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
	InviteCanceled InviteStatus = "canceled"
)

// Terminal reports whether no further transition is allowed.
func (s InviteStatus) Terminal() bool {
	return s != InvitePending
}

// Invite offers membership of a team to a chat username.
type Invite struct {
	BaseModel

	TeamID          string       `gorm:"type:uuid;not null;index" json:"team_id"`
	TeamName        string       `gorm:"not null" json:"team_name"`
	InvitedUsername string       `gorm:"not null;index" json:"invited_username"`
	InvitedBy       int64        `gorm:"not null" json:"invited_by"`
	Status          InviteStatus `gorm:"not null;index;default:pending" json:"status"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
}
