package dialogue

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
)

// render builds the prompt for state, prefixed by notice when present.
func (e *Engine) render(ctx context.Context, state State, ev Event, notice string) Reply {
	reply, err := e.prompt(ctx, state, ev)
	if err != nil {
		logger.WithModule("dialogue").Error("render failed",
			logger.ChatUser(ev.UserID),
			zap.String("state", state.StateName()),
			zap.Error(err),
		)
		reply = Reply{Text: msgLoadRetry, Keyboard: [][]Button{{backButton()}}}
	}
	if notice != "" {
		reply.Text = notice + "\n\n" + reply.Text
	}
	return reply
}

func (e *Engine) prompt(ctx context.Context, state State, ev Event) (Reply, error) {
	switch s := state.(type) {
	case MainMenu:
		label := "Invites"
		if ev.Username != "" {
			invites, err := e.teams.PendingInvites(ctx, ev.Username)
			if err != nil {
				return Reply{}, err
			}
			if len(invites) > 0 {
				label = fmt.Sprintf("Invites (%d)", len(invites))
			}
		}
		return Reply{
			Text: "Main menu",
			Keyboard: [][]Button{
				{{Text: "Teams", Token: TokenTeams}, {Text: "Reminders", Token: TokenReminders}},
				{{Text: label, Token: TokenInvites}},
			},
		}, nil

	case TeamMenu:
		return Reply{
			Text: "Teams",
			Keyboard: [][]Button{
				{{Text: "Create team", Token: TokenTeamCreate}, {Text: "My teams", Token: TokenTeamList}},
				{{Text: "Invite members", Token: TokenTeamInvite}},
				{{Text: "Delete team", Token: TokenTeamDelete}, {Text: "Leave team", Token: TokenTeamLeave}},
				{backButton()},
			},
		}, nil

	case TeamList:
		teams, err := e.teams.ListForMember(ctx, ev.UserID)
		if err != nil {
			return Reply{}, err
		}
		if len(teams) == 0 {
			return Reply{Text: "You are not in any team yet.", Keyboard: [][]Button{{backButton()}}}, nil
		}
		var b strings.Builder
		b.WriteString("Your teams:")
		for _, team := range teams {
			role := "member"
			if team.CreatedBy == ev.UserID {
				role = "creator"
			}
			fmt.Fprintf(&b, "\n• %s: %d members, you are %s", team.Name, len(team.Members), role)
		}
		return Reply{Text: b.String(), Keyboard: [][]Button{{backButton()}}}, nil

	case DeleteTeamList:
		teams, err := e.teams.ListCreatedBy(ctx, ev.UserID)
		if err != nil {
			return Reply{}, err
		}
		if len(teams) == 0 {
			return Reply{Text: "You have not created any team.", Keyboard: [][]Button{{backButton()}}}, nil
		}
		rows := make([][]Button, 0, len(teams)+1)
		for _, team := range teams {
			rows = append(rows, []Button{{Text: teamLabel(team.Name, len(team.Members)), Token: prefixTeamDelete + team.ID}})
		}
		return Reply{Text: "Pick a team to delete:", Keyboard: append(rows, []Button{backButton()})}, nil

	case AwaitDeleteConfirm:
		return Reply{
			Text: fmt.Sprintf("Delete team %q? Its team reminders and pending invites are removed too.", s.TeamName),
			Keyboard: [][]Button{
				{{Text: "Yes, delete", Token: TokenConfirmYes}, {Text: "No", Token: TokenConfirmNo}},
			},
		}, nil

	case LeaveTeamList:
		teams, err := e.teams.ListForMember(ctx, ev.UserID)
		if err != nil {
			return Reply{}, err
		}
		if len(teams) == 0 {
			return Reply{Text: "You are not in any team yet.", Keyboard: [][]Button{{backButton()}}}, nil
		}
		rows := make([][]Button, 0, len(teams)+1)
		for _, team := range teams {
			label := teamLabel(team.Name, len(team.Members))
			if team.CreatedBy == ev.UserID {
				label += ", deletes the team"
			}
			rows = append(rows, []Button{{Text: label, Token: prefixTeamLeave + team.ID}})
		}
		return Reply{Text: "Pick a team to leave:", Keyboard: append(rows, []Button{backButton()})}, nil

	case InviteTeamList:
		teams, err := e.teams.ListForMember(ctx, ev.UserID)
		if err != nil {
			return Reply{}, err
		}
		if len(teams) == 0 {
			return Reply{Text: "You are not in any team yet.", Keyboard: [][]Button{{backButton()}}}, nil
		}
		rows := make([][]Button, 0, len(teams)+1)
		for _, team := range teams {
			rows = append(rows, []Button{{Text: teamLabel(team.Name, len(team.Members)), Token: prefixTeamInvite + team.ID}})
		}
		return Reply{Text: "Pick a team to invite into:", Keyboard: append(rows, []Button{backButton()})}, nil

	case AwaitInvitees:
		return Reply{
			Text:     fmt.Sprintf("Send usernames to invite into %q, separated by commas.", s.TeamName),
			Keyboard: [][]Button{{backButton()}},
		}, nil

	case AwaitTeamName:
		text := "Send the name of the new team."
		if s.Name != "" {
			text += fmt.Sprintf(" Current name: %q.", s.Name)
		}
		return Reply{Text: text, Keyboard: [][]Button{{backButton()}}}, nil

	case AwaitTeamMembers:
		text := fmt.Sprintf("Team %q. Send usernames to invite, separated by commas, then send %s.",
			s.Name, services.DoneSentinel)
		if len(s.Invitees) > 0 {
			text += "\nInvited so far: " + formatHandles(s.Invitees)
		}
		return Reply{
			Text:     text,
			Keyboard: [][]Button{{{Text: "Done", Token: TokenMembersDone}}, {backButton()}},
		}, nil

	case ReminderMenu:
		return Reply{
			Text: "Reminders",
			Keyboard: [][]Button{
				{{Text: "New reminder", Token: TokenReminderCreate}, {Text: "My reminders", Token: TokenReminderList}},
				{backButton()},
			},
		}, nil

	case ReminderList:
		reminders, err := e.reminders.ListVisible(ctx, ev.UserID)
		if err != nil {
			return Reply{}, err
		}
		if len(reminders) == 0 {
			return Reply{Text: "No upcoming reminders.", Keyboard: [][]Button{{backButton()}}}, nil
		}
		var b strings.Builder
		b.WriteString("Upcoming reminders:")
		rows := make([][]Button, 0, len(reminders)+1)
		for _, reminder := range reminders {
			target := "personal"
			if reminder.TeamName != "" {
				target = "team " + reminder.TeamName
			}
			fmt.Fprintf(&b, "\n• %s %s (%s)", reminder.DueAt.In(e.loc).Format("2006-01-02 15:04"), reminder.Text, target)
			if reminder.OwnerID == ev.UserID {
				rows = append(rows, []Button{{Text: "Delete: " + shorten(reminder.Text, 24), Token: prefixReminderDelete + reminder.ID}})
			}
		}
		return Reply{Text: b.String(), Keyboard: append(rows, []Button{backButton()})}, nil

	case ChooseReminderKind:
		return Reply{
			Text: "Who is the reminder for?",
			Keyboard: [][]Button{
				{{Text: "Just me", Token: TokenKindPersonal}},
				{{Text: "A team", Token: TokenKindTeam}},
				{backButton()},
			},
		}, nil

	case ChooseTeam:
		teams, err := e.teams.ListForMember(ctx, ev.UserID)
		if err != nil {
			return Reply{}, err
		}
		rows := make([][]Button, 0, len(teams)+1)
		for _, team := range teams {
			rows = append(rows, []Button{{Text: teamLabel(team.Name, len(team.Members)), Token: prefixTeamPick + team.ID}})
		}
		return Reply{Text: "Pick the team:", Keyboard: append(rows, []Button{backButton()})}, nil

	case AwaitReminderText:
		text := "Send the reminder text."
		if s.Draft.Text != "" {
			text += fmt.Sprintf(" Current text: %q.", s.Draft.Text)
		}
		return Reply{Text: text, Keyboard: [][]Button{{backButton()}}}, nil

	case ChooseDate:
		return Reply{Text: "Pick a date:", Keyboard: calendarKeyboard(s.Page, e.today())}, nil

	case ChooseTime:
		return Reply{Text: fmt.Sprintf("Pick a time on %s:", s.Draft.Date), Keyboard: timeKeyboard()}, nil

	case AwaitCustomTime:
		return Reply{
			Text:     fmt.Sprintf("Send the time on %s as HH:MM, for example 14:30.", s.Draft.Date),
			Keyboard: [][]Button{{backButton()}},
		}, nil

	case InvitesMenu:
		if ev.Username == "" {
			return Reply{
				Text:     "Set a username in your chat profile to receive invites.",
				Keyboard: [][]Button{{backButton()}},
			}, nil
		}
		invites, err := e.teams.PendingInvites(ctx, ev.Username)
		if err != nil {
			return Reply{}, err
		}
		if len(invites) == 0 {
			return Reply{Text: "No pending invites.", Keyboard: [][]Button{{backButton()}}}, nil
		}
		rows := make([][]Button, 0, len(invites)+1)
		for _, invite := range invites {
			rows = append(rows, []Button{
				{Text: "Accept " + invite.TeamName, Token: prefixInviteAccept + invite.ID},
				{Text: "Reject", Token: prefixInviteReject + invite.ID},
			})
		}
		return Reply{Text: "Pending invites:", Keyboard: append(rows, []Button{backButton()})}, nil
	}

	return Reply{}, fmt.Errorf("dialogue: no prompt for state %s", state.StateName())
}

func teamLabel(name string, members int) string {
	return fmt.Sprintf("%s (%d)", name, members)
}

func shorten(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
