package notifier

import (
	"context"
	"errors"

	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
)

var errNotConnected = errors.New("recipient has no open chat connection")

// Pusher queues a reminder on a user's live chat connections and reports how many took it.
type Pusher interface {
	PushReminder(userID int64, text string) int
}

// Realtime delivers through the websocket chat gateway.
type Realtime struct {
	pusher Pusher
}

// NewRealtime wraps pusher.
func NewRealtime(pusher Pusher) *Realtime {
	return &Realtime{pusher: pusher}
}

// Send fails when the recipient has no open connection.
func (r *Realtime) Send(ctx context.Context, recipientID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Delivery(err, "delivery cancelled")
	}
	if r.pusher == nil || r.pusher.PushReminder(recipientID, text) == 0 {
		return apperrors.Delivery(errNotConnected, "recipient is not connected")
	}
	return nil
}
