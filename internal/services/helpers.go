package services

import (
	"context"
	"strings"
	"time"

	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/validator"
)

// DoneSentinel terminates member collection. It can never be a member token.
const DoneSentinel = "done"

// Option customises services sharing a clock.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithNow overrides the clock used by a service.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	cfg := options{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// NormaliseUsername trims whitespace, strips a leading @ and lower-cases the handle.
func NormaliseUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.ToLower(strings.TrimSpace(username))
}

// IsDoneSentinel reports whether the whole input is the reserved terminator.
func IsDoneSentinel(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), DoneSentinel)
}

// ParseUsernames splits a comma, semicolon or whitespace separated list of handles.
// It returns the normalised, deduplicated handles in input order and the raw tokens
// that are not acceptable usernames (including the reserved sentinel).
func ParseUsernames(input string) (valid []string, invalid []string) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	return normaliseUsernames(fields)
}

func normaliseUsernames(values []string) (valid []string, invalid []string) {
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		raw := strings.TrimSpace(value)
		if raw == "" {
			continue
		}
		name := NormaliseUsername(raw)
		if name == DoneSentinel || !validator.ValidUsername(name) {
			invalid = append(invalid, raw)
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		valid = append(valid, name)
	}
	return valid, invalid
}
