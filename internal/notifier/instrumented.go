package notifier

import (
	"context"

	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/metrics"
)

// Instrumented counts deliveries of the wrapped notifier by channel and result.
type Instrumented struct {
	next    Notifier
	channel string
}

// NewInstrumented wraps next, labelling its deliveries with channel.
func NewInstrumented(channel string, next Notifier) *Instrumented {
	return &Instrumented{next: next, channel: channel}
}

func (i *Instrumented) Send(ctx context.Context, recipientID int64, text string) error {
	err := i.next.Send(ctx, recipientID, text)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.RemindersDelivered.WithLabelValues(i.channel, result).Inc()
	return err
}
