package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/logger"
)

// Log writes reminders to the structured log. It is the fallback channel for users that
// are offline, and the only channel when the chat gateway is disabled.
type Log struct {
	log *zap.Logger
}

// NewLog builds a Log notifier on the "notifier" module logger.
func NewLog() *Log {
	return &Log{log: logger.WithModule("notifier")}
}

func (l *Log) Send(_ context.Context, recipientID int64, text string) error {
	l.log.Info("reminder", logger.ChatUser(recipientID), zap.String("text", text))
	return nil
}
