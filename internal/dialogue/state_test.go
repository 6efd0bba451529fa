package dialogue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateNamesAreUnique(t *testing.T) {
	states := []State{
		MainMenu{},
		TeamMenu{},
		TeamList{},
		DeleteTeamList{},
		LeaveTeamList{},
		InviteTeamList{},
		ReminderMenu{},
		ReminderList{},
		InvitesMenu{},
		AwaitTeamName{Name: "Alpha"},
		AwaitTeamMembers{Name: "Alpha", Invitees: []string{"bob"}},
		AwaitDeleteConfirm{TeamID: "t1", TeamName: "Alpha"},
		AwaitInvitees{TeamID: "t1", TeamName: "Alpha"},
		ChooseReminderKind{},
		ChooseTeam{},
		AwaitReminderText{},
		ChooseDate{},
		ChooseTime{},
		AwaitCustomTime{},
	}

	seen := make(map[string]bool, len(states))
	for _, s := range states {
		name := s.StateName()
		require.NotEmpty(t, name)
		require.False(t, seen[name], "duplicate state name %q", name)
		seen[name] = true
	}
}

func TestTeamDraftStatesKeepNameField(t *testing.T) {
	var s State = AwaitTeamMembers{Name: "Alpha", Invitees: []string{"bob"}}

	members, ok := s.(AwaitTeamMembers)
	require.True(t, ok)
	require.Equal(t, "Alpha", members.Name)
	require.Equal(t, "await_team_members", s.StateName())
	require.Equal(t, "await_team_name", AwaitTeamName{Name: "Alpha"}.StateName())
}
