package dialogue

import (
	"fmt"
	"time"
)

// State is one node of the conversation tree. Each variant carries exactly the draft
// fields collected so far, so a state can never read a field it has not gathered.
type State interface {
	// StateName identifies the state in logs and metrics.
	StateName() string
	isState()
}

type (
	MainMenu       struct{}
	TeamMenu       struct{}
	TeamList       struct{}
	DeleteTeamList struct{}
	LeaveTeamList  struct{}
	InviteTeamList struct{}
	ReminderMenu   struct{}
	ReminderList   struct{}
	InvitesMenu    struct{}

	// AwaitTeamName keeps invitees so that stepping back from the member prompt and
	// renaming the team does not lose them.
	AwaitTeamName struct {
		Name     string
		Invitees []string
	}

	AwaitTeamMembers struct {
		Name     string
		Invitees []string
	}

	AwaitDeleteConfirm struct {
		TeamID   string
		TeamName string
	}

	// AwaitInvitees collects usernames to invite into an existing team.
	AwaitInvitees struct {
		TeamID   string
		TeamName string
	}

	ChooseReminderKind struct{ Draft ReminderDraft }
	ChooseTeam         struct{ Draft ReminderDraft }
	AwaitReminderText  struct{ Draft ReminderDraft }

	// ChooseDate shows the calendar page Page.
	ChooseDate struct {
		Draft ReminderDraft
		Page  YearMonth
	}

	ChooseTime      struct{ Draft ReminderDraft }
	AwaitCustomTime struct{ Draft ReminderDraft }
)

func (MainMenu) StateName() string           { return "main_menu" }
func (TeamMenu) StateName() string           { return "team_menu" }
func (TeamList) StateName() string           { return "team_list" }
func (DeleteTeamList) StateName() string     { return "delete_team_list" }
func (LeaveTeamList) StateName() string      { return "leave_team_list" }
func (InviteTeamList) StateName() string     { return "invite_team_list" }
func (ReminderMenu) StateName() string       { return "reminder_menu" }
func (ReminderList) StateName() string       { return "reminder_list" }
func (InvitesMenu) StateName() string        { return "invites_menu" }
func (AwaitTeamName) StateName() string      { return "await_team_name" }
func (AwaitTeamMembers) StateName() string   { return "await_team_members" }
func (AwaitDeleteConfirm) StateName() string { return "await_delete_confirm" }
func (AwaitInvitees) StateName() string      { return "await_invitees" }
func (ChooseReminderKind) StateName() string { return "choose_reminder_kind" }
func (ChooseTeam) StateName() string         { return "choose_team" }
func (AwaitReminderText) StateName() string  { return "await_reminder_text" }
func (ChooseDate) StateName() string         { return "choose_date" }
func (ChooseTime) StateName() string         { return "choose_time" }
func (AwaitCustomTime) StateName() string    { return "await_custom_time" }

func (MainMenu) isState()           {}
func (TeamMenu) isState()           {}
func (TeamList) isState()           {}
func (DeleteTeamList) isState()     {}
func (LeaveTeamList) isState()      {}
func (InviteTeamList) isState()     {}
func (ReminderMenu) isState()       {}
func (ReminderList) isState()       {}
func (InvitesMenu) isState()        {}
func (AwaitTeamName) isState()      {}
func (AwaitTeamMembers) isState()   {}
func (AwaitDeleteConfirm) isState() {}
func (AwaitInvitees) isState()      {}
func (ChooseReminderKind) isState() {}
func (ChooseTeam) isState()         {}
func (AwaitReminderText) isState()  {}
func (ChooseDate) isState()         {}
func (ChooseTime) isState()         {}
func (AwaitCustomTime) isState()    {}

// awaitsText reports whether free text is meaningful in s.
func awaitsText(s State) bool {
	switch s.(type) {
	case AwaitTeamName, AwaitTeamMembers, AwaitInvitees, AwaitReminderText, AwaitCustomTime:
		return true
	default:
		return false
	}
}

// ReminderDraft is the reminder being authored. Date and Clock stay separate until the
// confirming step so the calendar and the time picker can be revisited in any order.
type ReminderDraft struct {
	// Team is set once the team branch was chosen; TeamName stays empty until a team is picked.
	Team     bool
	TeamName string
	Text     string
	Date     Date
	Clock    Clock
}

// Date is a calendar day without a clock. The zero value means unset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// IsZero reports whether no day was picked.
func (d Date) IsZero() bool { return d.Year == 0 }

// Page returns the calendar page containing d.
func (d Date) Page() YearMonth { return YearMonth{Year: d.Year, Month: d.Month} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a wall-clock time of day. Set distinguishes 00:00 from unset.
type Clock struct {
	Hour   int
	Minute int
	Set    bool
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// combine builds the due instant in loc.
func combine(d Date, c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}
