// Package auditctx carries the chat actor behind a request so audit entries can record where a
// change came from.
package auditctx

import "context"

// Actor describes who triggered a change and through which surface.
type Actor struct {
	UserID     int64
	Username   string
	Channel    string
	RemoteAddr string
}

type actorContextKey struct{}

// WithActor returns a derived context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// Fields returns the non-empty actor attributes keyed for audit metadata.
func (a Actor) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if a.Username != "" {
		fields["actor_username"] = a.Username
	}
	if a.Channel != "" {
		fields["channel"] = a.Channel
	}
	if a.RemoteAddr != "" {
		fields["remote_addr"] = a.RemoteAddr
	}
	return fields
}
