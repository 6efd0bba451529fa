package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
)

const (
	u1 int64 = 101
	u2 int64 = 202
	u3 int64 = 303
)

func TestNewTeamServiceRequiresStore(t *testing.T) {
	_, err := NewTeamService(nil, nil)
	require.Error(t, err)
}

func TestTeamServiceInviteAcceptScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Alpha"})
	require.NoError(t, err)
	require.Empty(t, invites)
	require.Equal(t, []int64{u1}, []int64(team.Members))

	invite, err := f.teams.Invite(ctx, u1, team.ID, "@Bob")
	require.NoError(t, err)
	require.Equal(t, "bob", invite.InvitedUsername)
	require.Equal(t, models.InvitePending, invite.Status)

	again, err := f.teams.Invite(ctx, u1, team.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, invite.ID, again.ID, "pending invite is reused")

	pending, err := f.teams.PendingInvites(ctx, "BOB")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	joined, err := f.teams.Accept(ctx, u2, "bob", invite.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{u1, u2}, []int64(joined.Members))

	stored, err := f.store.GetInviteByID(ctx, invite.ID)
	require.NoError(t, err)
	require.Equal(t, models.InviteAccepted, stored.Status)
	require.True(t, stored.ResolvedAt.Equal(testNow))

	_, err = f.teams.Accept(ctx, u2, "bob", invite.ID)
	require.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	reloaded, err := f.teams.Get(ctx, team.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{u1, u2}, []int64(reloaded.Members), "no duplicate membership")

	logs, _, err := f.audit.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "invite.accept"}})
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestTeamServiceCreateWithInvitees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{
		CreatorID: u1,
		Name:      "  Ops ",
		Invitees:  []string{"@bob", "Carol", "bob"},
	})
	require.NoError(t, err)
	require.Equal(t, "Ops", team.Name)
	require.Len(t, invites, 2)
	require.Equal(t, "bob", invites[0].InvitedUsername)
	require.Equal(t, "carol", invites[1].InvitedUsername)

	_, _, err = f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops"})
	require.NoError(t, err, "names are not unique")

	_, _, err = f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "   "})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, err = f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Dev", Invitees: []string{"done"}})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	teams, err := f.teams.List(ctx, store.TeamFilter{})
	require.NoError(t, err)
	require.Len(t, teams, 2, "a rejected create writes nothing")
}

func TestTeamServiceInviteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, _, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops"})
	require.NoError(t, err)

	_, err = f.teams.Invite(ctx, u3, team.ID, "bob")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.teams.Invite(ctx, u1, team.ID, "no spaces")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.teams.Invite(ctx, u1, "missing", "bob")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamServiceAcceptRequiresMatchingUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob"}})
	require.NoError(t, err)

	_, err = f.teams.Accept(ctx, u3, "mallory", invites[0].ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.teams.Accept(ctx, u3, "", invites[0].ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.teams.Accept(ctx, u2, "bob", "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	reloaded, err := f.teams.Get(ctx, team.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{u1}, []int64(reloaded.Members))
}

func TestTeamServiceAcceptIsIdempotentForExistingMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob", "bobby"}})
	require.NoError(t, err)

	_, err = f.teams.Accept(ctx, u2, "bob", invites[0].ID)
	require.NoError(t, err)
	// same person, second handle
	joined, err := f.teams.Accept(ctx, u2, "bobby", invites[1].ID)
	require.NoError(t, err)
	require.Equal(t, []int64{u1, u2}, []int64(joined.Members))

	reloaded, err := f.teams.Get(ctx, team.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{u1, u2}, []int64(reloaded.Members))
}

func TestTeamServiceReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob"}})
	require.NoError(t, err)

	rejected, err := f.teams.Reject(ctx, u2, "@bob", invites[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.InviteRejected, rejected.Status)

	_, err = f.teams.Accept(ctx, u2, "bob", invites[0].ID)
	require.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	_, err = f.teams.Reject(ctx, u2, "bob", invites[0].ID)
	require.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	reloaded, err := f.teams.Get(ctx, team.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{u1}, []int64(reloaded.Members))
}

func TestTeamServiceConcurrentAcceptsKeepAllMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	handles := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: handles})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, len(invites))
	for i, invite := range invites {
		wg.Add(1)
		go func(i int, invite models.Invite) {
			defer wg.Done()
			_, errs[i] = f.teams.Accept(ctx, int64(1000+i), invite.InvitedUsername, invite.ID)
		}(i, invite)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	reloaded, err := f.teams.Get(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Members, len(handles)+1)
	require.Equal(t, u1, reloaded.Members[0])
}

func TestTeamServiceLeaveRemovesOnlyOwnReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob", "carol"}})
	require.NoError(t, err)
	_, err = f.teams.Accept(ctx, u2, "bob", invites[0].ID)
	require.NoError(t, err)
	_, err = f.teams.Accept(ctx, u3, "carol", invites[1].ID)
	require.NoError(t, err)

	due := testNow.Add(time.Hour)
	bobs, err := f.reminders.Create(ctx, CreateReminderInput{OwnerID: u2, Text: "bob's", TeamName: "Ops", DueAt: due})
	require.NoError(t, err)
	bobsPersonal, err := f.reminders.Create(ctx, CreateReminderInput{OwnerID: u2, Text: "mine", DueAt: due})
	require.NoError(t, err)
	carols, err := f.reminders.Create(ctx, CreateReminderInput{OwnerID: u3, Text: "carol's", TeamName: "Ops", DueAt: due})
	require.NoError(t, err)

	result, err := f.teams.Leave(ctx, u2, team.ID)
	require.NoError(t, err)
	require.False(t, result.TeamDeleted)
	require.Equal(t, int64(1), result.RemindersRemoved)
	require.Equal(t, []int64{u1, u3}, []int64(result.Team.Members))

	_, err = f.store.GetReminderByID(ctx, bobs.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.store.GetReminderByID(ctx, bobsPersonal.ID)
	require.NoError(t, err)
	_, err = f.store.GetReminderByID(ctx, carols.ID)
	require.NoError(t, err)

	_, err = f.teams.Leave(ctx, u2, team.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTeamServiceLeaveKeepsRemindersOfSameNamedTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob"}})
	require.NoError(t, err)
	_, err = f.teams.Accept(ctx, u2, "bob", invites[0].ID)
	require.NoError(t, err)
	_, _, err = f.teams.Create(ctx, CreateTeamInput{CreatorID: u2, Name: "Ops"})
	require.NoError(t, err)

	reminder, err := f.reminders.Create(ctx, CreateReminderInput{OwnerID: u2, Text: "sync", TeamName: "Ops", DueAt: testNow.Add(time.Hour)})
	require.NoError(t, err)

	result, err := f.teams.Leave(ctx, u2, first.ID)
	require.NoError(t, err)
	require.Zero(t, result.RemindersRemoved)

	_, err = f.store.GetReminderByID(ctx, reminder.ID)
	require.NoError(t, err)
}

func TestTeamServiceCreatorLeavingDeletesTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob", "carol"}})
	require.NoError(t, err)
	_, err = f.teams.Accept(ctx, u2, "bob", invites[0].ID)
	require.NoError(t, err)

	result, err := f.teams.Leave(ctx, u1, team.ID)
	require.NoError(t, err)
	require.True(t, result.TeamDeleted)

	_, err = f.teams.Get(ctx, team.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	pending, err := f.store.GetPendingInvites(ctx, store.InviteFilter{TeamID: team.ID})
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestTeamServiceDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	team, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob", "carol"}})
	require.NoError(t, err)
	_, err = f.teams.Accept(ctx, u2, "bob", invites[0].ID)
	require.NoError(t, err)

	due := testNow.Add(time.Hour)
	_, err = f.reminders.Create(ctx, CreateReminderInput{OwnerID: u2, Text: "standup", TeamName: "Ops", DueAt: due})
	require.NoError(t, err)
	personal, err := f.reminders.Create(ctx, CreateReminderInput{OwnerID: u1, Text: "mine", DueAt: due})
	require.NoError(t, err)

	require.ErrorIs(t, f.teams.Delete(ctx, u2, team.ID), apperrors.ErrForbidden)
	require.NoError(t, f.teams.Delete(ctx, u1, team.ID))
	require.ErrorIs(t, f.teams.Delete(ctx, u1, team.ID), apperrors.ErrNotFound)

	remaining, err := f.reminders.List(ctx, store.ReminderFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, personal.ID, remaining[0].ID)

	carol, err := f.store.GetInviteByID(ctx, invites[1].ID)
	require.NoError(t, err)
	require.Equal(t, models.InviteCanceled, carol.Status)

	_, err = f.teams.Accept(ctx, u3, "carol", invites[1].ID)
	require.ErrorIs(t, err, apperrors.ErrAlreadyResolved)
}

func TestTeamServiceListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ops, invites, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u1, Name: "Ops", Invitees: []string{"bob"}})
	require.NoError(t, err)
	_, err = f.teams.Accept(ctx, u2, "bob", invites[0].ID)
	require.NoError(t, err)
	dev, _, err := f.teams.Create(ctx, CreateTeamInput{CreatorID: u2, Name: "Dev"})
	require.NoError(t, err)

	mine, err := f.teams.ListForMember(ctx, u2)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	owned, err := f.teams.ListCreatedBy(ctx, u2)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, dev.ID, owned[0].ID)

	owned, err = f.teams.ListCreatedBy(ctx, u1)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, ops.ID, owned[0].ID)
}
