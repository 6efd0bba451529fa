package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	require.NoError(t, base.BeforeCreate(nil))
	require.NotEmpty(t, base.ID)

	kept := BaseModel{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	require.Equal(t, "fixed", kept.ID)
}

func TestAuditLogBeforeCreateGeneratesID(t *testing.T) {
	var entry AuditLog
	require.NoError(t, entry.BeforeCreate(nil))
	require.NotEmpty(t, entry.ID)
}

func TestTeamMembershipKeepsOrderedSet(t *testing.T) {
	team := Team{Members: []int64{1, 2, 3}}

	require.False(t, team.AddMember(2))
	require.True(t, team.AddMember(4))
	require.Equal(t, []int64{1, 2, 3, 4}, []int64(team.Members))

	original := team.Members
	require.True(t, team.RemoveMember(2))
	require.Equal(t, []int64{1, 3, 4}, []int64(team.Members))
	require.Equal(t, int64(2), original[1], "remove must not alias the previous slice")

	require.False(t, team.RemoveMember(99))
	require.True(t, team.HasMember(4))
	require.False(t, team.HasMember(2))
}

func TestReminderHelpers(t *testing.T) {
	personal := Reminder{Text: "water plants"}
	require.True(t, personal.IsPersonal())
	require.False(t, personal.Delivered())

	team := Reminder{TeamName: "Ops"}
	require.False(t, team.IsPersonal())
}

func TestInviteStatusTerminal(t *testing.T) {
	require.False(t, InvitePending.Terminal())
	require.True(t, InviteAccepted.Terminal())
	require.True(t, InviteRejected.Terminal())
	require.True(t, InviteCanceled.Terminal())
}
