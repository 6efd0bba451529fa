package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
)

var _ Store = (*GormStore)(nil)

// GormStore implements Store on top of gorm. Instants are persisted in UTC so that
// range predicates compare correctly on sqlite, which stores timestamps as text.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Option customises a GormStore.
type Option func(*GormStore)

// WithNow overrides the clock used for resolution timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *GormStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB, opts ...Option) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	s := &GormStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.db.WithContext(ctx)
}

// Transaction runs fn inside a database transaction. A returned error rolls back.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, now: s.now})
	})
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Store(err, "transaction failed")
}

func (s *GormStore) CreateTeam(ctx context.Context, name string, members []int64, creatorID int64) (string, error) {
	team := &models.Team{
		Name:      strings.TrimSpace(name),
		Members:   normaliseMembers(creatorID, members),
		CreatedBy: creatorID,
	}
	if err := s.conn(ctx).Create(team).Error; err != nil {
		return "", apperrors.Store(err, "create team")
	}
	return team.ID, nil
}

// GetTeams returns teams ordered by creation. Member filtering happens after the query
// because the member set is a JSON column and the three supported dialects disagree on
// JSON containment syntax.
func (s *GormStore) GetTeams(ctx context.Context, filter TeamFilter) ([]models.Team, error) {
	query := s.conn(ctx).Model(&models.Team{})
	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("name = ?", name)
	}

	var teams []models.Team
	if err := query.Order("created_at ASC, id ASC").Find(&teams).Error; err != nil {
		return nil, apperrors.Store(err, "list teams")
	}

	if filter.Member == nil {
		return teams, nil
	}
	out := teams[:0]
	for _, team := range teams {
		if team.HasMember(*filter.Member) {
			out = append(out, team)
		}
	}
	return out, nil
}

func (s *GormStore) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	return s.loadTeam(s.conn(ctx), id)
}

func (s *GormStore) LockTeam(ctx context.Context, id string) (*models.Team, error) {
	return s.loadTeam(s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (s *GormStore) loadTeam(query *gorm.DB, id string) (*models.Team, error) {
	var team models.Team
	err := query.First(&team, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("team not found")
	}
	if err != nil {
		return nil, apperrors.Store(err, "load team")
	}
	return &team, nil
}

func (s *GormStore) UpdateMembers(ctx context.Context, teamID string, members []int64) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	team.Members = normaliseMembers(team.CreatedBy, members)

	result := s.conn(ctx).Model(&models.Team{}).
		Where("id = ?", team.ID).
		Update("members", team.Members)
	if result.Error != nil {
		return apperrors.Store(result.Error, "update team members")
	}
	return nil
}

func (s *GormStore) DeleteTeam(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(txStore Store) error {
		tx := txStore.(*GormStore).conn(ctx)

		team, err := txStore.LockTeam(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.Where("team_name = ?", team.Name).Delete(&models.Reminder{}).Error; err != nil {
			return apperrors.Store(err, "delete team reminders")
		}

		if err := tx.Model(&models.Invite{}).
			Where("team_id = ? AND status = ?", team.ID, models.InvitePending).
			Updates(map[string]any{
				"status":      models.InviteCanceled,
				"resolved_at": s.now().UTC(),
			}).Error; err != nil {
			return apperrors.Store(err, "cancel team invites")
		}

		if err := tx.Delete(&models.Team{}, "id = ?", team.ID).Error; err != nil {
			return apperrors.Store(err, "delete team")
		}
		return nil
	})
}

func (s *GormStore) CreateReminder(ctx context.Context, reminder *models.Reminder) (string, error) {
	if reminder == nil {
		return "", apperrors.NewValidation("reminder is required")
	}
	reminder.Text = strings.TrimSpace(reminder.Text)
	reminder.TeamName = strings.TrimSpace(reminder.TeamName)
	reminder.DueAt = reminder.DueAt.UTC().Truncate(time.Second)
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = s.now().UTC()
	}
	if reminder.Text == "" {
		return "", apperrors.NewValidation("reminder text is required")
	}
	if err := s.conn(ctx).Create(reminder).Error; err != nil {
		return "", apperrors.Store(err, "create reminder")
	}
	return reminder.ID, nil
}

func (s *GormStore) reminderQuery(ctx context.Context, filter ReminderFilter) *gorm.DB {
	query := s.conn(ctx).Model(&models.Reminder{})
	if filter.Owner != nil {
		query = query.Where("owner_id = ?", *filter.Owner)
	}
	if filter.TeamName != nil {
		query = query.Where("team_name = ?", strings.TrimSpace(*filter.TeamName))
	}
	if len(filter.TeamNames) > 0 {
		query = query.Where("team_name IN ?", filter.TeamNames)
	}
	if filter.Personal {
		query = query.Where("team_name = ?", "")
	}
	if filter.Undelivered {
		query = query.Where("delivered_at IS NULL")
	}
	if filter.DueAfter != nil {
		query = query.Where("due_at > ?", filter.DueAfter.UTC())
	}
	if filter.DueUntil != nil {
		query = query.Where("due_at <= ?", filter.DueUntil.UTC())
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", filter.CreatedAfter.UTC())
	}
	return query
}

func (s *GormStore) GetReminders(ctx context.Context, filter ReminderFilter) ([]models.Reminder, error) {
	var reminders []models.Reminder
	if err := s.reminderQuery(ctx, filter).Order("due_at ASC, id ASC").Find(&reminders).Error; err != nil {
		return nil, apperrors.Store(err, "list reminders")
	}
	return reminders, nil
}

func (s *GormStore) GetReminderByID(ctx context.Context, id string) (*models.Reminder, error) {
	var reminder models.Reminder
	err := s.conn(ctx).First(&reminder, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("reminder not found")
	}
	if err != nil {
		return nil, apperrors.Store(err, "load reminder")
	}
	return &reminder, nil
}

func (s *GormStore) DeleteReminder(ctx context.Context, id string) error {
	result := s.conn(ctx).Delete(&models.Reminder{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return apperrors.Store(result.Error, "delete reminder")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("reminder not found")
	}
	return nil
}

func (s *GormStore) DeleteReminders(ctx context.Context, filter ReminderFilter) (int64, error) {
	if filter.empty() {
		return 0, errors.New("store: refusing to delete reminders without a filter")
	}
	result := s.reminderQuery(ctx, filter).Delete(&models.Reminder{})
	if result.Error != nil {
		return 0, apperrors.Store(result.Error, "delete reminders")
	}
	return result.RowsAffected, nil
}

func (s *GormStore) DeleteRemindersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.conn(ctx).
		Where("delivered_at IS NOT NULL AND delivered_at < ?", cutoff.UTC()).
		Delete(&models.Reminder{})
	if result.Error != nil {
		return 0, apperrors.Store(result.Error, "purge delivered reminders")
	}
	return result.RowsAffected, nil
}

func (s *GormStore) MarkReminderDelivered(ctx context.Context, id string, at time.Time) error {
	result := s.conn(ctx).Model(&models.Reminder{}).
		Where("id = ? AND delivered_at IS NULL", id).
		Update("delivered_at", at.UTC())
	if result.Error != nil {
		return apperrors.Store(result.Error, "mark reminder delivered")
	}
	return nil
}

func (s *GormStore) CreateInvite(ctx context.Context, invite *models.Invite) (string, error) {
	if invite == nil {
		return "", apperrors.NewValidation("invite is required")
	}
	if invite.Status == "" {
		invite.Status = models.InvitePending
	}
	if err := s.conn(ctx).Create(invite).Error; err != nil {
		return "", apperrors.Store(err, "create invite")
	}
	return invite.ID, nil
}

func (s *GormStore) GetInviteByID(ctx context.Context, id string) (*models.Invite, error) {
	var invite models.Invite
	err := s.conn(ctx).First(&invite, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("invite not found")
	}
	if err != nil {
		return nil, apperrors.Store(err, "load invite")
	}
	return &invite, nil
}

func (s *GormStore) GetPendingInvites(ctx context.Context, filter InviteFilter) ([]models.Invite, error) {
	query := s.conn(ctx).Where("status = ?", models.InvitePending)
	if username := strings.TrimSpace(filter.Username); username != "" {
		query = query.Where("invited_username = ?", username)
	}
	if teamID := strings.TrimSpace(filter.TeamID); teamID != "" {
		query = query.Where("team_id = ?", teamID)
	}

	var invites []models.Invite
	if err := query.Order("created_at ASC, id ASC").Find(&invites).Error; err != nil {
		return nil, apperrors.Store(err, "list pending invites")
	}
	return invites, nil
}

func (s *GormStore) UpdateInviteStatus(ctx context.Context, id string, status models.InviteStatus, at time.Time) error {
	if !status.Terminal() {
		return apperrors.NewValidation(fmt.Sprintf("invite cannot move to %q", status))
	}

	result := s.conn(ctx).Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, models.InvitePending).
		Updates(map[string]any{
			"status":      status,
			"resolved_at": at.UTC(),
		})
	if result.Error != nil {
		return apperrors.Store(result.Error, "update invite status")
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// Either the invite is gone or it already left pending.
	if _, err := s.GetInviteByID(ctx, id); err != nil {
		return err
	}
	return apperrors.ErrAlreadyResolved
}

// normaliseMembers dedupes members keeping first-seen order and guarantees the creator is first.
func normaliseMembers(creatorID int64, members []int64) []int64 {
	out := make([]int64, 0, len(members)+1)
	seen := make(map[int64]struct{}, len(members)+1)
	out = append(out, creatorID)
	seen[creatorID] = struct{}{}
	for _, member := range members {
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		out = append(out, member)
	}
	return out
}
