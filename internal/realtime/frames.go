package realtime

import (
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/dialogue"
)

// Server frame events.
const (
	EventPrompt   = "prompt"
	EventReminder = "reminder"
	EventError    = "error"
)

// ClientFrame is one inbound websocket message from a chat client.
type ClientFrame struct {
	Kind    string `json:"kind" validate:"required,oneof=menu text command"`
	Token   string `json:"token" validate:"required_if=Kind menu,max=128"`
	Text    string `json:"text" validate:"required_if=Kind text,max=4096"`
	Command string `json:"command" validate:"required_if=Kind command,max=32"`
}

// Event converts the frame into a dialogue event for the given user.
func (f ClientFrame) Event(userID int64, username string) dialogue.Event {
	switch f.Kind {
	case string(dialogue.KindText):
		return dialogue.Text(userID, username, f.Text)
	case string(dialogue.KindCommand):
		return dialogue.Command(userID, username, f.Command)
	default:
		return dialogue.Menu(userID, username, f.Token)
	}
}

// ServerFrame is one outbound websocket message.
type ServerFrame struct {
	Event  string          `json:"event"`
	Prompt *dialogue.Reply `json:"prompt,omitempty"`
	Text   string          `json:"text,omitempty"`
	Error  string          `json:"error,omitempty"`
}
