// Package notifier delivers reminder texts to chat users.
package notifier

import "context"

// Notifier sends text to one chat user. Failures are reported as DELIVERY_ERROR.
type Notifier interface {
	Send(ctx context.Context, recipientID int64, text string) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, recipientID int64, text string) error

// Send calls f.
func (f Func) Send(ctx context.Context, recipientID int64, text string) error {
	return f(ctx, recipientID, text)
}
