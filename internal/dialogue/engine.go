package dialogue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/models"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/services"
	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/metrics"
)

// TeamManager is the slice of the team service the engine drives.
type TeamManager interface {
	Create(ctx context.Context, input services.CreateTeamInput) (*models.Team, []models.Invite, error)
	Get(ctx context.Context, id string) (*models.Team, error)
	ListForMember(ctx context.Context, userID int64) ([]models.Team, error)
	ListCreatedBy(ctx context.Context, userID int64) ([]models.Team, error)
	Delete(ctx context.Context, userID int64, teamID string) error
	Leave(ctx context.Context, userID int64, teamID string) (*services.LeaveResult, error)
	Invite(ctx context.Context, inviterID int64, teamID, username string) (*models.Invite, error)
	PendingInvites(ctx context.Context, username string) ([]models.Invite, error)
	Accept(ctx context.Context, userID int64, username, inviteID string) (*models.Team, error)
	Reject(ctx context.Context, userID int64, username, inviteID string) (*models.Invite, error)
}

// ReminderManager is the slice of the reminder service the engine drives.
type ReminderManager interface {
	Create(ctx context.Context, input services.CreateReminderInput) (*models.Reminder, error)
	ListVisible(ctx context.Context, userID int64) ([]models.Reminder, error)
	Delete(ctx context.Context, userID int64, reminderID string) error
}

const (
	msgRetry     = "Operation failed, please try again."
	msgLoadRetry = "Could not load data, please try again."
)

// Engine runs the per-user conversation state machine. Turns of one user are serialised;
// different users are handled concurrently.
type Engine struct {
	teams     TeamManager
	reminders ReminderManager
	sessions  SessionStore
	locks     *userLocks
	now       func() time.Time
	loc       *time.Location
}

// Option customises an Engine.
type Option func(*Engine)

// WithNow overrides the engine clock.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the zone reminder dates and times are entered in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine constructs an Engine.
func NewEngine(teams TeamManager, reminders ReminderManager, sessions SessionStore, opts ...Option) (*Engine, error) {
	if teams == nil {
		return nil, errors.New("dialogue: team manager is required")
	}
	if reminders == nil {
		return nil, errors.New("dialogue: reminder manager is required")
	}
	if sessions == nil {
		return nil, errors.New("dialogue: session store is required")
	}
	e := &Engine{
		teams:     teams,
		reminders: reminders,
		sessions:  sessions,
		locks:     newUserLocks(),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// outcome is the result of applying one event to a state.
type outcome struct {
	next   State
	notice string
	result string
}

func stay(current State, notice string) outcome {
	return outcome{next: current, notice: notice, result: "ok"}
}

func move(next State, notice string) outcome {
	return outcome{next: next, notice: notice, result: "ok"}
}

// Handle applies ev to the user's session and returns the prompt to show next.
func (e *Engine) Handle(ctx context.Context, ev Event) Reply {
	if ctx == nil {
		ctx = context.Background()
	}

	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	current := e.current(ev.UserID)
	out := e.dispatch(ctx, current, ev)
	reply := e.render(ctx, out.next, ev, out.notice)

	if _, terminal := out.next.(MainMenu); terminal {
		e.sessions.Delete(ev.UserID)
	} else {
		e.sessions.Save(Session{UserID: ev.UserID, State: out.next, UpdatedAt: e.now()})
	}

	metrics.DialogueEvents.WithLabelValues(string(ev.Kind), out.result).Inc()
	logger.WithModule("dialogue").Debug("turn handled",
		logger.ChatUser(ev.UserID),
		zap.String("from", current.StateName()),
		zap.String("to", out.next.StateName()),
		zap.String("result", out.result),
	)
	return reply
}

// State returns the state the next event of userID will be applied to.
func (e *Engine) State(userID int64) State {
	return e.current(userID)
}

func (e *Engine) current(userID int64) State {
	if session, ok := e.sessions.Load(userID); ok && session.State != nil {
		return session.State
	}
	return MainMenu{}
}

func (e *Engine) dispatch(ctx context.Context, current State, ev Event) outcome {
	switch ev.Kind {
	case KindCommand:
		switch strings.ToLower(strings.TrimSpace(ev.Text)) {
		case CommandStart:
			return move(MainMenu{}, "")
		case CommandCancel:
			return move(MainMenu{}, "Cancelled.")
		default:
			return stay(current, "Unknown command.")
		}
	case KindText:
		if !awaitsText(current) {
			return stay(current, "")
		}
		return e.onText(ctx, current, ev)
	case KindMenu:
		return e.onMenu(ctx, current, ev)
	default:
		return stay(current, "")
	}
}

func (e *Engine) onText(ctx context.Context, current State, ev Event) outcome {
	switch s := current.(type) {
	case AwaitTeamName:
		name, err := services.ValidateTeamName(ev.Text)
		if err != nil {
			return e.fail(ev, current, err, TeamMenu{})
		}
		return move(AwaitTeamMembers{Name: name, Invitees: s.Invitees}, "")

	case AwaitTeamMembers:
		if services.IsDoneSentinel(ev.Text) {
			return e.finishTeam(ctx, ev, s)
		}
		valid, invalid := services.ParseUsernames(ev.Text)
		if len(invalid) > 0 {
			return e.fail(ev, current, apperrors.NewValidation(
				fmt.Sprintf("Not valid usernames: %s. %q only works on its own.",
					strings.Join(invalid, ", "), services.DoneSentinel)), TeamMenu{})
		}
		if len(valid) == 0 {
			return e.fail(ev, current, apperrors.NewValidation("Send at least one username, or done to finish."), TeamMenu{})
		}
		merged := mergeUsernames(s.Invitees, valid)
		return stay(AwaitTeamMembers{Name: s.Name, Invitees: merged},
			"Will invite: "+formatHandles(valid)+".")

	case AwaitInvitees:
		return e.inviteMembers(ctx, ev, s)

	case AwaitReminderText:
		text, err := services.ValidateReminderText(ev.Text)
		if err != nil {
			return e.fail(ev, current, err, ReminderMenu{})
		}
		draft := s.Draft
		draft.Text = text
		return move(ChooseDate{Draft: draft, Page: e.pageFor(draft)}, "")

	case AwaitCustomTime:
		clock, ok := ParseClock(ev.Text)
		if !ok {
			return e.fail(ev, current, apperrors.NewValidation("Use HH:MM in 24-hour format, for example 14:30."), ReminderMenu{})
		}
		draft := s.Draft
		draft.Clock = clock
		return e.confirmReminder(ctx, ev, current, draft)
	}
	return stay(current, "")
}

func (e *Engine) onMenu(ctx context.Context, current State, ev Event) outcome {
	token := strings.TrimSpace(ev.Token)

	switch token {
	case TokenMainMenu:
		return move(MainMenu{}, "")
	case TokenTeams:
		return move(TeamMenu{}, "")
	case TokenReminders:
		return move(ReminderMenu{}, "")
	case TokenInvites:
		return move(InvitesMenu{}, "")
	case TokenBack:
		return move(e.parent(current), "")
	case TokenIgnore, "":
		return stay(current, "")
	}

	switch s := current.(type) {
	case TeamMenu:
		switch token {
		case TokenTeamCreate:
			return move(AwaitTeamName{}, "")
		case TokenTeamList:
			return move(TeamList{}, "")
		case TokenTeamDelete:
			return move(DeleteTeamList{}, "")
		case TokenTeamLeave:
			return move(LeaveTeamList{}, "")
		case TokenTeamInvite:
			return move(InviteTeamList{}, "")
		}

	case InviteTeamList:
		if id, ok := payload(token, prefixTeamInvite); ok {
			team, err := e.teams.Get(ctx, id)
			if err != nil {
				return e.fail(ev, current, err, TeamMenu{})
			}
			if !team.HasMember(ev.UserID) {
				return e.fail(ev, current, apperrors.ErrForbidden.WithMessage("only team members can invite"), TeamMenu{})
			}
			return move(AwaitInvitees{TeamID: team.ID, TeamName: team.Name}, "")
		}

	case AwaitTeamMembers:
		if token == TokenMembersDone {
			return e.finishTeam(ctx, ev, s)
		}

	case DeleteTeamList:
		if id, ok := payload(token, prefixTeamDelete); ok {
			team, err := e.teams.Get(ctx, id)
			if err != nil {
				return e.fail(ev, current, err, TeamMenu{})
			}
			if team.CreatedBy != ev.UserID {
				return e.fail(ev, current, apperrors.ErrForbidden.WithMessage("only the team creator can delete the team"), TeamMenu{})
			}
			return move(AwaitDeleteConfirm{TeamID: team.ID, TeamName: team.Name}, "")
		}

	case AwaitDeleteConfirm:
		switch token {
		case TokenConfirmYes:
			if err := e.teams.Delete(ctx, ev.UserID, s.TeamID); err != nil {
				return e.fail(ev, current, err, TeamMenu{})
			}
			return move(TeamMenu{}, fmt.Sprintf("Team %q deleted.", s.TeamName))
		case TokenConfirmNo:
			return move(DeleteTeamList{}, "")
		}

	case LeaveTeamList:
		if id, ok := payload(token, prefixTeamLeave); ok {
			result, err := e.teams.Leave(ctx, ev.UserID, id)
			if err != nil {
				return e.fail(ev, current, err, TeamMenu{})
			}
			if result.TeamDeleted {
				return move(TeamMenu{}, fmt.Sprintf("You created %q, so the team was deleted.", result.Team.Name))
			}
			return move(TeamMenu{}, fmt.Sprintf("You left %q.", result.Team.Name))
		}

	case ReminderMenu:
		switch token {
		case TokenReminderCreate:
			return move(ChooseReminderKind{}, "")
		case TokenReminderList:
			return move(ReminderList{}, "")
		}

	case ReminderList:
		if id, ok := payload(token, prefixReminderDelete); ok {
			if err := e.reminders.Delete(ctx, ev.UserID, id); err != nil {
				return e.fail(ev, current, err, ReminderMenu{})
			}
			return stay(current, "Reminder deleted.")
		}

	case ChooseReminderKind:
		switch token {
		case TokenKindPersonal:
			draft := s.Draft
			draft.Team, draft.TeamName = false, ""
			return move(AwaitReminderText{Draft: draft}, "")
		case TokenKindTeam:
			teams, err := e.teams.ListForMember(ctx, ev.UserID)
			if err != nil {
				return e.fail(ev, current, err, ReminderMenu{})
			}
			if len(teams) == 0 {
				return stay(current, "You are not in any team yet.")
			}
			draft := s.Draft
			draft.Team = true
			return move(ChooseTeam{Draft: draft}, "")
		}

	case ChooseTeam:
		if id, ok := payload(token, prefixTeamPick); ok {
			team, err := e.teams.Get(ctx, id)
			if err != nil {
				return e.fail(ev, current, err, ReminderMenu{})
			}
			if !team.HasMember(ev.UserID) {
				return e.fail(ev, current, apperrors.ErrForbidden.WithMessage("you are not a member of this team"), ReminderMenu{})
			}
			draft := s.Draft
			draft.TeamName = team.Name
			return move(AwaitReminderText{Draft: draft}, "")
		}

	case ChooseDate:
		if p, ok := payload(token, prefixCalendarNav); ok {
			page, valid := parseNav(p)
			if !valid {
				return stay(current, "")
			}
			return stay(ChooseDate{Draft: s.Draft, Page: page}, "")
		}
		if p, ok := payload(token, prefixCalendarDay); ok {
			day, valid := parseDay(p)
			if !valid {
				return e.fail(ev, current, apperrors.NewValidation("That is not a valid date."), ReminderMenu{})
			}
			if dateBefore(day, e.today()) {
				return e.fail(ev, current, apperrors.NewValidation("That day has already passed, pick another one."), ReminderMenu{})
			}
			draft := s.Draft
			draft.Date = day
			return move(ChooseTime{Draft: draft}, "")
		}

	case ChooseTime:
		if token == TokenTimeCustom {
			return move(AwaitCustomTime{Draft: s.Draft}, "")
		}
		if p, ok := payload(token, prefixTime); ok {
			clock, valid := ParseClock(p)
			if !valid {
				return stay(current, "")
			}
			draft := s.Draft
			draft.Clock = clock
			return e.confirmReminder(ctx, ev, current, draft)
		}

	case InvitesMenu:
		if id, ok := payload(token, prefixInviteAccept); ok {
			team, err := e.teams.Accept(ctx, ev.UserID, ev.Username, id)
			if err != nil {
				return e.fail(ev, current, err, MainMenu{})
			}
			return move(MainMenu{}, fmt.Sprintf("You joined %q.", team.Name))
		}
		if id, ok := payload(token, prefixInviteReject); ok {
			invite, err := e.teams.Reject(ctx, ev.UserID, ev.Username, id)
			if err != nil {
				return e.fail(ev, current, err, MainMenu{})
			}
			return move(MainMenu{}, fmt.Sprintf("Invite to %q rejected.", invite.TeamName))
		}
	}

	return stay(current, "")
}

// parent is the target of the back transition. Draft fields travel with it.
func (e *Engine) parent(current State) State {
	switch s := current.(type) {
	case TeamMenu, ReminderMenu, InvitesMenu:
		return MainMenu{}
	case TeamList, DeleteTeamList, LeaveTeamList, InviteTeamList, AwaitTeamName:
		return TeamMenu{}
	case AwaitInvitees:
		return InviteTeamList{}
	case AwaitTeamMembers:
		return AwaitTeamName{Name: s.Name, Invitees: s.Invitees}
	case AwaitDeleteConfirm:
		return DeleteTeamList{}
	case ReminderList, ChooseReminderKind:
		return ReminderMenu{}
	case ChooseTeam:
		return ChooseReminderKind{Draft: s.Draft}
	case AwaitReminderText:
		if s.Draft.Team {
			return ChooseTeam{Draft: s.Draft}
		}
		return ChooseReminderKind{Draft: s.Draft}
	case ChooseDate:
		return AwaitReminderText{Draft: s.Draft}
	case ChooseTime:
		return ChooseDate{Draft: s.Draft, Page: e.pageFor(s.Draft)}
	case AwaitCustomTime:
		return ChooseTime{Draft: s.Draft}
	default:
		return MainMenu{}
	}
}

func (e *Engine) finishTeam(ctx context.Context, ev Event, s AwaitTeamMembers) outcome {
	team, invites, err := e.teams.Create(ctx, services.CreateTeamInput{
		CreatorID: ev.UserID,
		Name:      s.Name,
		Invitees:  s.Invitees,
	})
	if err != nil {
		return e.fail(ev, s, err, TeamMenu{})
	}
	notice := fmt.Sprintf("Team %q created.", team.Name)
	if len(invites) > 0 {
		handles := make([]string, 0, len(invites))
		for _, invite := range invites {
			handles = append(handles, invite.InvitedUsername)
		}
		notice += " Invites sent to " + formatHandles(handles) + "."
	}
	return move(TeamMenu{}, notice)
}

// inviteMembers sends an invite for every username in the message. All names are checked
// before the first invite is written.
func (e *Engine) inviteMembers(ctx context.Context, ev Event, s AwaitInvitees) outcome {
	valid, invalid := services.ParseUsernames(ev.Text)
	if len(invalid) > 0 {
		return e.fail(ev, s, apperrors.NewValidation("Not valid usernames: "+strings.Join(invalid, ", ")+"."), TeamMenu{})
	}
	if len(valid) == 0 {
		return e.fail(ev, s, apperrors.NewValidation("Send at least one username."), TeamMenu{})
	}

	invited := make([]string, 0, len(valid))
	for _, username := range valid {
		invite, err := e.teams.Invite(ctx, ev.UserID, s.TeamID, username)
		if err != nil {
			out := e.fail(ev, s, err, TeamMenu{})
			if len(invited) > 0 {
				out.notice = "Invites sent to " + formatHandles(invited) + ". " + out.notice
			}
			return out
		}
		invited = append(invited, invite.InvitedUsername)
	}
	return move(TeamMenu{}, fmt.Sprintf("Invites to %q sent to %s.", s.TeamName, formatHandles(invited)))
}

// confirmReminder is the only step of the reminder flow that writes.
func (e *Engine) confirmReminder(ctx context.Context, ev Event, current State, draft ReminderDraft) outcome {
	if draft.Date.IsZero() {
		return move(ChooseDate{Draft: draft, Page: e.pageFor(draft)}, "Pick a date first.")
	}
	dueAt := combine(draft.Date, draft.Clock, e.loc)

	reminder, err := e.reminders.Create(ctx, services.CreateReminderInput{
		OwnerID:  ev.UserID,
		Text:     draft.Text,
		TeamName: draft.TeamName,
		DueAt:    dueAt,
	})
	if err != nil {
		return e.fail(ev, current, err, ReminderMenu{})
	}

	target := "personal"
	if reminder.TeamName != "" {
		target = fmt.Sprintf("team %q", reminder.TeamName)
	}
	return move(ReminderMenu{}, fmt.Sprintf("Reminder saved for %s (%s).",
		reminder.DueAt.In(e.loc).Format("2006-01-02 15:04"), target))
}

// fail maps an error to the next state: input problems re-prompt in place, missing
// rights or records fall back to safe, anything else keeps the state for a retry.
func (e *Engine) fail(ev Event, current State, err error, safe State) outcome {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrAlreadyResolved):
		return outcome{next: current, notice: userMessage(err), result: "validation"}
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrNotFound):
		return outcome{next: safe, notice: userMessage(err), result: "rejected"}
	default:
		logger.WithModule("dialogue").Error("turn failed",
			logger.ChatUser(ev.UserID),
			zap.String("state", current.StateName()),
			zap.Error(err),
		)
		return outcome{next: current, notice: msgRetry, result: "error"}
	}
}

func (e *Engine) today() Date {
	return dateOf(e.now().In(e.loc))
}

func (e *Engine) pageFor(draft ReminderDraft) YearMonth {
	if !draft.Date.IsZero() {
		return draft.Date.Page()
	}
	return PageOf(e.now().In(e.loc))
}

func userMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr == nil {
		return msgRetry
	}
	msg := strings.TrimSpace(appErr.Message)
	if msg == "" {
		return msgRetry
	}
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

func mergeUsernames(existing, added []string) []string {
	out := slices.Clone(existing)
	for _, name := range added {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func formatHandles(handles []string) string {
	out := make([]string, len(handles))
	for i, handle := range handles {
		out[i] = "@" + handle
	}
	return strings.Join(out, ", ")
}
