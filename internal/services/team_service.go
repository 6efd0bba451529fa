package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
)

const maxTeamNameLength = 64

// CreateTeamInput captures a new team and the handles to invite into it.
type CreateTeamInput struct {
	CreatorID int64
	Name      string
	Invitees  []string
}

// LeaveResult describes the outcome of a leave request.
type LeaveResult struct {
	Team *models.Team
	// TeamDeleted is set when the creator left, which deletes the team.
	TeamDeleted      bool
	RemindersRemoved int64
}

// TeamService enforces membership rules on top of the entity store.
type TeamService struct {
	store        store.Store
	auditService *AuditService
	now          func() time.Time
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(st store.Store, auditService *AuditService, opts ...Option) (*TeamService, error) {
	if st == nil {
		return nil, errors.New("team service: store is required")
	}
	cfg := newOptions(opts)
	return &TeamService{
		store:        st,
		auditService: auditService,
		now:          cfg.now,
	}, nil
}

// ValidateTeamName trims and checks a team name.
func ValidateTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewValidation("team name is required")
	}
	if utf8.RuneCountInString(name) > maxTeamNameLength {
		return "", apperrors.NewValidation(fmt.Sprintf("team name must be at most %d characters", maxTeamNameLength))
	}
	return name, nil
}

// Create registers a team with the creator as its first member and records a pending invite
// for every invitee. Team and invites are written atomically.
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, []models.Invite, error) {
	ctx = ensureContext(ctx)

	name, err := ValidateTeamName(input.Name)
	if err != nil {
		return nil, nil, err
	}
	invitees, invalid := normaliseUsernames(input.Invitees)
	if len(invalid) > 0 {
		return nil, nil, apperrors.NewValidation("invalid usernames: " + strings.Join(invalid, ", "))
	}

	var (
		team    *models.Team
		invites []models.Invite
	)
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		teamID, err := tx.CreateTeam(ctx, name, nil, input.CreatorID)
		if err != nil {
			return err
		}
		for _, username := range invitees {
			invite := models.Invite{
				TeamID:          teamID,
				TeamName:        name,
				InvitedUsername: username,
				InvitedBy:       input.CreatorID,
			}
			if _, err := tx.CreateInvite(ctx, &invite); err != nil {
				return err
			}
			invites = append(invites, invite)
		}
		team, err = tx.GetTeamByID(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("team service: create team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  input.CreatorID,
		Action:   "team.create",
		Resource: team.ID,
		Result:   "success",
		Metadata: map[string]any{
			"name":     team.Name,
			"invitees": invitees,
		},
	})

	return team, invites, nil
}

// Get returns a team by id.
func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	return s.store.GetTeamByID(ensureContext(ctx), id)
}

// List returns teams matching filter.
func (s *TeamService) List(ctx context.Context, filter store.TeamFilter) ([]models.Team, error) {
	return s.store.GetTeams(ensureContext(ctx), filter)
}

// ListForMember returns the teams userID belongs to.
func (s *TeamService) ListForMember(ctx context.Context, userID int64) ([]models.Team, error) {
	return s.store.GetTeams(ensureContext(ctx), store.TeamFilter{Member: &userID})
}

// ListCreatedBy returns the teams userID may delete.
func (s *TeamService) ListCreatedBy(ctx context.Context, userID int64) ([]models.Team, error) {
	teams, err := s.ListForMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := teams[:0]
	for _, team := range teams {
		if team.CreatedBy == userID {
			owned = append(owned, team)
		}
	}
	return owned, nil
}

// Invite addresses a pending invite to username. Only members may invite. Inviting a
// handle that already has a pending invite for the team returns that invite.
func (s *TeamService) Invite(ctx context.Context, inviterID int64, teamID, username string) (*models.Invite, error) {
	ctx = ensureContext(ctx)

	names, invalid := normaliseUsernames([]string{username})
	if len(invalid) > 0 || len(names) == 0 {
		return nil, apperrors.NewValidation("invalid username: " + strings.TrimSpace(username))
	}
	target := names[0]

	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(inviterID) {
		return nil, apperrors.ErrForbidden.WithMessage("only team members can invite")
	}

	pending, err := s.store.GetPendingInvites(ctx, store.InviteFilter{Username: target, TeamID: team.ID})
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return &pending[0], nil
	}

	invite := &models.Invite{
		TeamID:          team.ID,
		TeamName:        team.Name,
		InvitedUsername: target,
		InvitedBy:       inviterID,
	}
	if _, err := s.store.CreateInvite(ctx, invite); err != nil {
		return nil, fmt.Errorf("team service: create invite: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  inviterID,
		Action:   "invite.create",
		Resource: invite.ID,
		Result:   "success",
		Metadata: map[string]any{"team_id": team.ID, "username": target},
	})

	return invite, nil
}

// PendingInvites lists the invites waiting for username. A user without a handle has none.
func (s *TeamService) PendingInvites(ctx context.Context, username string) ([]models.Invite, error) {
	if NormaliseUsername(username) == "" {
		return nil, nil
	}
	return s.ListPendingInvites(ctx, store.InviteFilter{Username: username})
}

// ListPendingInvites returns pending invites matching filter.
func (s *TeamService) ListPendingInvites(ctx context.Context, filter store.InviteFilter) ([]models.Invite, error) {
	filter.Username = NormaliseUsername(filter.Username)
	return s.store.GetPendingInvites(ensureContext(ctx), filter)
}

// Accept adds userID to the invite's team and marks the invite accepted. Membership is
// idempotent; a resolved invite fails with ALREADY_RESOLVED.
func (s *TeamService) Accept(ctx context.Context, userID int64, username, inviteID string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	var team *models.Team
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		invite, err := s.resolvable(ctx, tx, username, inviteID)
		if err != nil {
			return err
		}

		locked, err := tx.LockTeam(ctx, invite.TeamID)
		if err != nil {
			return err
		}
		if locked.AddMember(userID) {
			if err := tx.UpdateMembers(ctx, locked.ID, locked.Members); err != nil {
				return err
			}
		}
		if err := tx.UpdateInviteStatus(ctx, invite.ID, models.InviteAccepted, s.now()); err != nil {
			return err
		}
		team = locked
		return nil
	})
	s.auditInvite(ctx, userID, "invite.accept", inviteID, err)
	if err != nil {
		return nil, err
	}
	return team, nil
}

// Reject marks the invite rejected without touching membership.
func (s *TeamService) Reject(ctx context.Context, userID int64, username, inviteID string) (*models.Invite, error) {
	ctx = ensureContext(ctx)

	var invite *models.Invite
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		invite, err = s.resolvable(ctx, tx, username, inviteID)
		if err != nil {
			return err
		}
		return tx.UpdateInviteStatus(ctx, invite.ID, models.InviteRejected, s.now())
	})
	s.auditInvite(ctx, userID, "invite.reject", inviteID, err)
	if err != nil {
		return nil, err
	}
	invite.Status = models.InviteRejected
	return invite, nil
}

// resolvable loads an invite that username may still act on.
func (s *TeamService) resolvable(ctx context.Context, tx store.Store, username, inviteID string) (*models.Invite, error) {
	invite, err := tx.GetInviteByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if invite.Status.Terminal() {
		return nil, apperrors.ErrAlreadyResolved
	}
	if name := NormaliseUsername(username); name == "" || name != invite.InvitedUsername {
		return nil, apperrors.ErrForbidden.WithMessage("invite is addressed to another user")
	}
	return invite, nil
}

func (s *TeamService) auditInvite(ctx context.Context, userID int64, action, inviteID string, err error) {
	result := "success"
	meta := map[string]any{}
	if err != nil {
		result = "failure"
		meta["error"] = apperrors.Code(err)
	}
	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   action,
		Resource: inviteID,
		Result:   result,
		Metadata: meta,
	})
}

// Leave removes userID from the team together with the reminders they own for it.
// The creator leaving deletes the whole team.
func (s *TeamService) Leave(ctx context.Context, userID int64, teamID string) (*LeaveResult, error) {
	ctx = ensureContext(ctx)

	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(userID) {
		return nil, apperrors.ErrForbidden.WithMessage("you are not a member of this team")
	}
	if team.CreatedBy == userID {
		if err := s.Delete(ctx, userID, teamID); err != nil {
			return nil, err
		}
		return &LeaveResult{Team: team, TeamDeleted: true}, nil
	}

	result := &LeaveResult{}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		locked, err := tx.LockTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if !locked.RemoveMember(userID) {
			return apperrors.ErrForbidden.WithMessage("you are not a member of this team")
		}
		if err := tx.UpdateMembers(ctx, locked.ID, locked.Members); err != nil {
			return err
		}
		result.Team = locked

		// Reminders bind to team names; keep them while another team of that name still
		// counts the user as a member.
		siblings, err := tx.GetTeams(ctx, store.TeamFilter{Member: &userID, Name: locked.Name})
		if err != nil {
			return err
		}
		if len(siblings) > 0 {
			return nil
		}
		result.RemindersRemoved, err = tx.DeleteReminders(ctx, store.ReminderFilter{
			Owner:    &userID,
			TeamName: &locked.Name,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("team service: leave team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "team.leave",
		Resource: teamID,
		Result:   "success",
		Metadata: map[string]any{"reminders_removed": result.RemindersRemoved},
	})

	return result, nil
}

// Delete removes a team. Only its creator may do so.
func (s *TeamService) Delete(ctx context.Context, userID int64, teamID string) error {
	ctx = ensureContext(ctx)

	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.CreatedBy != userID {
		return apperrors.ErrForbidden.WithMessage("only the team creator can delete the team")
	}
	if err := s.store.DeleteTeam(ctx, team.ID); err != nil {
		return fmt.Errorf("team service: delete team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  userID,
		Action:   "team.delete",
		Resource: team.ID,
		Result:   "success",
		Metadata: map[string]any{"name": team.Name},
	})
	return nil
}
