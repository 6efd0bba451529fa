package store

import (
	"context"
	"time"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
)

// Store is the persistence contract shared by the team manager, the dialogue engine and the
// dispatcher. Every failure other than a missing row is reported as a STORE_ERROR AppError.
type Store interface {
	// CreateTeam persists a team. The creator is always part of the member set.
	CreateTeam(ctx context.Context, name string, members []int64, creatorID int64) (string, error)
	GetTeams(ctx context.Context, filter TeamFilter) ([]models.Team, error)
	GetTeamByID(ctx context.Context, id string) (*models.Team, error)
	// LockTeam loads a team with an update lock. Only meaningful inside Transaction.
	LockTeam(ctx context.Context, id string) (*models.Team, error)
	UpdateMembers(ctx context.Context, teamID string, members []int64) error
	// DeleteTeam removes the team, every reminder addressed to its name and cancels its
	// pending invites in one transaction.
	DeleteTeam(ctx context.Context, id string) error

	CreateReminder(ctx context.Context, reminder *models.Reminder) (string, error)
	GetReminders(ctx context.Context, filter ReminderFilter) ([]models.Reminder, error)
	GetReminderByID(ctx context.Context, id string) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	DeleteReminders(ctx context.Context, filter ReminderFilter) (int64, error)
	// DeleteRemindersBefore purges delivered reminders handled before cutoff.
	DeleteRemindersBefore(ctx context.Context, cutoff time.Time) (int64, error)
	MarkReminderDelivered(ctx context.Context, id string, at time.Time) error

	CreateInvite(ctx context.Context, invite *models.Invite) (string, error)
	GetInviteByID(ctx context.Context, id string) (*models.Invite, error)
	GetPendingInvites(ctx context.Context, filter InviteFilter) ([]models.Invite, error)
	// UpdateInviteStatus moves a pending invite to status. It fails with ALREADY_RESOLVED
	// when the invite left pending before the update.
	UpdateInviteStatus(ctx context.Context, id string, status models.InviteStatus, at time.Time) error

	// Transaction runs fn against a Store bound to a single database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// TeamFilter narrows GetTeams. Zero values match everything.
type TeamFilter struct {
	Member *int64
	Name   string
}

// ReminderFilter narrows reminder queries. Zero values match everything.
type ReminderFilter struct {
	Owner     *int64
	TeamName  *string
	TeamNames []string
	// Personal restricts results to reminders without a team.
	Personal    bool
	Undelivered bool
	// DueAfter is exclusive, DueUntil inclusive.
	DueAfter *time.Time
	DueUntil *time.Time
	// CreatedAfter is exclusive.
	CreatedAfter *time.Time
}

// InviteFilter narrows GetPendingInvites.
type InviteFilter struct {
	Username string
	TeamID   string
}

func (f ReminderFilter) empty() bool {
	return f.Owner == nil && f.TeamName == nil && len(f.TeamNames) == 0 &&
		!f.Personal && !f.Undelivered && f.DueAfter == nil && f.DueUntil == nil && f.CreatedAfter == nil
}
