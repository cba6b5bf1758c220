// Package mirror implements the secondary booking store: a Redis hash
// per owner holding the denormalized history entries, plus the pub/sub
// change feed the live subscriptions listen on.
package mirror

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/mykeysuk/handyelite/internal/booking"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func hashKey(owner string) string {
	return "users:" + owner + ":bookings"
}

func channel(owner string, view booking.View) string {
	return "events:" + string(view) + ":" + owner
}

func (s *RedisStore) Put(ctx context.Context, owner string, entry booking.MirrorEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, hashKey(owner), entry.BookingID, raw).Err()
}

func (s *RedisStore) Get(ctx context.Context, owner, bookingID string) (booking.MirrorEntry, error) {
	raw, err := s.client.HGet(ctx, hashKey(owner), bookingID).Bytes()
	if err == redis.Nil {
		return booking.MirrorEntry{}, booking.ErrMirrorNotFound
	}
	if err != nil {
		return booking.MirrorEntry{}, err
	}

	var entry booking.MirrorEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return booking.MirrorEntry{}, err
	}
	return entry, nil
}

func (s *RedisStore) List(ctx context.Context, owner string) ([]booking.MirrorEntry, error) {
	fields, err := s.client.HGetAll(ctx, hashKey(owner)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]booking.MirrorEntry, 0, len(fields))
	for _, raw := range fields {
		var entry booking.MirrorEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	// Booking ids are ObjectID hex strings, so lexical order is
	// creation order. Newest first, matching the primary view.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].BookingID > entries[j].BookingID
	})
	return entries, nil
}

// Toggle negates the completed flag. Read-modify-write without a
// guard; concurrent togglers are last-write-wins, as in the primary
// store.
func (s *RedisStore) Toggle(ctx context.Context, owner, bookingID string) (bool, error) {
	entry, err := s.Get(ctx, owner, bookingID)
	if err != nil {
		return false, err
	}

	entry.Completed = !entry.Completed
	if err := s.Put(ctx, owner, entry); err != nil {
		return false, err
	}
	return entry.Completed, nil
}

func (s *RedisStore) Publish(ctx context.Context, owner string, view booking.View) error {
	return s.client.Publish(ctx, channel(owner, view), "1").Err()
}

// Listen subscribes to the owner's change channel and converts messages
// into coalesced signals. The returned stop function releases the
// underlying subscription; the signal channel closes when the
// subscription ends for any reason.
func (s *RedisStore) Listen(ctx context.Context, owner string, view booking.View) (<-chan struct{}, func(), error) {
	sub := s.client.Subscribe(ctx, channel(owner, view))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	signals := make(chan struct{}, 1)
	go func() {
		defer close(signals)
		for range sub.Channel() {
			select {
			case signals <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() { _ = sub.Close() }
	return signals, stop, nil
}
