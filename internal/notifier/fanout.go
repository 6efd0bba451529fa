package notifier

import (
	"context"

	"go.uber.org/multierr"

	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
)

// Fanout tries each channel in order and stops at the first that succeeds.
type Fanout struct {
	channels []Notifier
}

// NewFanout builds a Fanout over channels, skipping nil entries.
func NewFanout(channels ...Notifier) *Fanout {
	f := &Fanout{}
	for _, ch := range channels {
		if ch != nil {
			f.channels = append(f.channels, ch)
		}
	}
	return f
}

// Send returns nil once one channel delivered, otherwise the combined channel errors.
func (f *Fanout) Send(ctx context.Context, recipientID int64, text string) error {
	var errs error
	for _, ch := range f.channels {
		err := ch.Send(ctx, recipientID, text)
		if err == nil {
			return nil
		}
		errs = multierr.Append(errs, err)
	}
	if errs == nil {
		return apperrors.ErrDelivery.WithMessage("no delivery channel configured")
	}
	return apperrors.Delivery(errs, "all delivery channels failed")
}
