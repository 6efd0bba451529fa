package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
)

const maxReminderTextLength = 1000

// CreateReminderInput describes a confirmed reminder draft.
type CreateReminderInput struct {
	OwnerID  int64
	Text     string
	TeamName string
	DueAt    time.Time
}

// ReminderService authors, lists and deletes reminders.
type ReminderService struct {
	store        store.Store
	auditService *AuditService
	now          func() time.Time
}

// NewReminderService constructs a ReminderService instance.
func NewReminderService(st store.Store, auditService *AuditService, opts ...Option) (*ReminderService, error) {
	if st == nil {
		return nil, errors.New("reminder service: store is required")
	}
	cfg := newOptions(opts)
	return &ReminderService{store: st, auditService: auditService, now: cfg.now}, nil
}

// ValidateReminderText trims and checks reminder text.
func ValidateReminderText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewValidation("reminder text must not be empty")
	}
	if utf8.RuneCountInString(text) > maxReminderTextLength {
		return "", apperrors.NewValidation(fmt.Sprintf("reminder text must be at most %d characters", maxReminderTextLength))
	}
	return text, nil
}

// ValidateDueAt rejects instants earlier than the current minute.
func (s *ReminderService) ValidateDueAt(dueAt time.Time) error {
	if dueAt.IsZero() {
		return apperrors.NewValidation("reminder time is required")
	}
	if dueAt.Before(s.now().Truncate(time.Minute)) {
		return apperrors.NewValidation("that time has already passed, pick a later one")
	}
	return nil
}

// Create persists a reminder. A team reminder requires the owner to be a member of a team
// with that name at creation time.
func (s *ReminderService) Create(ctx context.Context, input CreateReminderInput) (*models.Reminder, error) {
	ctx = ensureContext(ctx)

	text, err := ValidateReminderText(input.Text)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateDueAt(input.DueAt); err != nil {
		return nil, err
	}

	teamName := strings.TrimSpace(input.TeamName)
	if teamName != "" {
		teams, err := s.store.GetTeams(ctx, store.TeamFilter{Name: teamName})
		if err != nil {
			return nil, err
		}
		if len(teams) == 0 {
			return nil, apperrors.ErrNotFound.WithMessage("team not found")
		}
		member := false
		for _, team := range teams {
			if team.HasMember(input.OwnerID) {
				member = true
				break
			}
		}
		if !member {
			return nil, apperrors.ErrForbidden.WithMessage("you are not a member of this team")
		}
	}

	reminder := &models.Reminder{
		OwnerID:  input.OwnerID,
		DueAt:    input.DueAt,
		Text:     text,
		TeamName: teamName,
	}
	if _, err := s.store.CreateReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("reminder service: create reminder: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  input.OwnerID,
		Action:   "reminder.create",
		Resource: reminder.ID,
		Result:   "success",
		Metadata: map[string]any{"team_name": teamName, "due_at": reminder.DueAt},
	})

	return reminder, nil
}

// List returns reminders matching filter.
func (s *ReminderService) List(ctx context.Context, filter store.ReminderFilter) ([]models.Reminder, error) {
	return s.store.GetReminders(ensureContext(ctx), filter)
}

// ListVisible returns the undelivered reminders userID owns or receives through a team.
func (s *ReminderService) ListVisible(ctx context.Context, userID int64) ([]models.Reminder, error) {
	ctx = ensureContext(ctx)

	owned, err := s.store.GetReminders(ctx, store.ReminderFilter{Owner: &userID, Undelivered: true})
	if err != nil {
		return nil, err
	}

	teams, err := s.store.GetTeams(ctx, store.TeamFilter{Member: &userID})
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return owned, nil
	}
	names := make([]string, 0, len(teams))
	for _, team := range teams {
		names = append(names, team.Name)
	}
	shared, err := s.store.GetReminders(ctx, store.ReminderFilter{TeamNames: names, Undelivered: true})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned))
	out := make([]models.Reminder, 0, len(owned)+len(shared))
	for _, reminder := range owned {
		seen[reminder.ID] = struct{}{}
		out = append(out, reminder)
	}
	for _, reminder := range shared {
		if _, ok := seen[reminder.ID]; ok {
			continue
		}
		out = append(out, reminder)
	}
	slices.SortStableFunc(out, func(a, b models.Reminder) int {
		return a.DueAt.Compare(b.DueAt)
	})
	return out, nil
}

// Delete removes a reminder owned by userID.
func (s *ReminderService) Delete(ctx context.Context, userID int64, reminderID string) error {
	ctx = ensureContext(ctx)

	reminder, err := s.store.GetReminderByID(ctx, reminderID)
	if err != nil {
		return err
	}
	if reminder.OwnerID != userID {
		return apperrors.ErrForbidden.WithMessage("only the author can delete a reminder")
	}
	if err := s.store.DeleteReminder(ctx, reminder.ID); err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "reminder.delete",
		Resource: reminder.ID,
		Result:   "success",
	})
	return nil
}

// PurgeDelivered drops reminders delivered longer than retention ago.
func (s *ReminderService) PurgeDelivered(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("reminder service: retention must be positive")
	}
	return s.store.DeleteRemindersBefore(ensureContext(ctx), s.now().Add(-retention))
}
