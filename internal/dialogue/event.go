package dialogue

import "strings"

// EventKind distinguishes the inbound interactions a chat user can produce.
type EventKind string

const (
	KindMenu    EventKind = "menu"
	KindText    EventKind = "text"
	KindCommand EventKind = "command"
)

// Event is one inbound user interaction.
type Event struct {
	UserID   int64
	Username string
	Kind     EventKind
	// Token is the opaque action of a menu selection.
	Token string
	// Text is the free text, or the command name without slash.
	Text string
}

// Menu builds a menu-selection event.
func Menu(userID int64, username, token string) Event {
	return Event{UserID: userID, Username: username, Kind: KindMenu, Token: token}
}

// Text builds a free-text event.
func Text(userID int64, username, text string) Event {
	return Event{UserID: userID, Username: username, Kind: KindText, Text: text}
}

// Command builds a command event such as "start".
func Command(userID int64, username, command string) Event {
	return Event{UserID: userID, Username: username, Kind: KindCommand, Text: strings.TrimPrefix(command, "/")}
}

// Button is one keyboard key.
type Button struct {
	Text  string `json:"text"`
	Token string `json:"token"`
}

// Reply is the prompt rendered after a turn.
type Reply struct {
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
}

// Tokens understood by the engine. Tokens with a trailing colon carry a payload.
const (
	TokenMainMenu  = "menu:main"
	TokenTeams     = "menu:teams"
	TokenReminders = "menu:reminders"
	TokenInvites   = "menu:invites"
	TokenBack      = "back"
	TokenIgnore    = "ignore"

	TokenTeamCreate  = "team:create"
	TokenTeamList    = "team:list"
	TokenTeamDelete  = "team:delete"
	TokenTeamLeave   = "team:leave"
	TokenTeamInvite  = "team:invite"
	TokenMembersDone = "members:done"
	TokenConfirmYes  = "confirm:yes"
	TokenConfirmNo   = "confirm:no"

	TokenReminderCreate = "reminder:create"
	TokenReminderList   = "reminder:list"
	TokenKindPersonal   = "kind:personal"
	TokenKindTeam       = "kind:team"
	TokenTimeCustom     = "time:custom"

	prefixTeamDelete     = "team:delete:"
	prefixTeamLeave      = "team:leave:"
	prefixTeamInvite     = "team:invite:"
	prefixTeamPick       = "team:pick:"
	prefixReminderDelete = "reminder:delete:"
	prefixCalendarNav    = "cal:nav:"
	prefixCalendarDay    = "cal:day:"
	prefixTime           = "time:"
	prefixInviteAccept   = "invite:accept:"
	prefixInviteReject   = "invite:reject:"
)

// Commands understood by the engine.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

// payload returns the part of token after prefix.
func payload(token, prefix string) (string, bool) {
	if !strings.HasPrefix(token, prefix) {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(token, prefix))
	return rest, rest != ""
}

func backButton() Button {
	return Button{Text: "Back", Token: TokenBack}
}
