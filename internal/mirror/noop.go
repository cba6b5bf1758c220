package mirror

import (
	"context"

	"github.com/mykeysuk/handyelite/internal/booking"
)

// Noop stands in when Redis is not configured. Writes succeed without
// storing anything and the feed never signals, so the history view is
// simply empty and static. The primary store keeps working untouched.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Put(ctx context.Context, owner string, entry booking.MirrorEntry) error {
	return nil
}

func (n *Noop) Get(ctx context.Context, owner, bookingID string) (booking.MirrorEntry, error) {
	return booking.MirrorEntry{}, booking.ErrMirrorNotFound
}

func (n *Noop) List(ctx context.Context, owner string) ([]booking.MirrorEntry, error) {
	return []booking.MirrorEntry{}, nil
}

func (n *Noop) Toggle(ctx context.Context, owner, bookingID string) (bool, error) {
	return false, booking.ErrMirrorNotFound
}

func (n *Noop) Publish(ctx context.Context, owner string, view booking.View) error {
	return nil
}

func (n *Noop) Listen(ctx context.Context, owner string, view booking.View) (<-chan struct{}, func(), error) {
	signals := make(chan struct{})
	return signals, func() {}, nil
}
