package booking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mykeysuk/handyelite/internal/metrics"
)

// Broker owns the live subscriptions. At most one subscription exists
// per (owner, view); establishing a new one stops the previous one
// under the broker lock, so two racing sign-ins cannot leave duplicate
// listeners behind.
type Broker struct {
	repo   Repository
	mirror MirrorStore
	feed   Feed
	m      *metrics.Metrics
	log    *slog.Logger

	mu   sync.Mutex
	subs map[string]stopper
}

// stop tears the subscription down without touching the broker map;
// it is safe to call while holding the broker lock.
type stopper interface {
	stop()
}

func NewBroker(repo Repository, mirror MirrorStore, feed Feed, m *metrics.Metrics, log *slog.Logger) *Broker {
	return &Broker{
		repo:   repo,
		mirror: mirror,
		feed:   feed,
		m:      m,
		log:    log,
		subs:   make(map[string]stopper),
	}
}

// Subscription delivers the owner's full booking list, newest first,
// once on subscribe and again after every change signal. Cancel stops
// all further deliveries and closes C.
type Subscription struct {
	C <-chan []Booking

	stopFn   func()
	stopOnce sync.Once
	remove   func()
}

func (s *Subscription) stop() {
	s.stopOnce.Do(s.stopFn)
}

func (s *Subscription) Cancel() {
	s.stop()
	s.remove()
}

// MirrorSubscription is the history-view counterpart, fed from the
// secondary store. It is independently cancelable.
type MirrorSubscription struct {
	C <-chan []MirrorEntry

	stopFn   func()
	stopOnce sync.Once
	remove   func()
}

func (s *MirrorSubscription) stop() {
	s.stopOnce.Do(s.stopFn)
}

func (s *MirrorSubscription) Cancel() {
	s.stop()
	s.remove()
}

func (b *Broker) Subscribe(ctx context.Context, owner string) (*Subscription, error) {
	key := subKey(owner, ViewBookings)

	signals, stopListen, err := b.feed.Listen(ctx, owner, ViewBookings)
	if err != nil {
		return nil, err
	}

	out := make(chan []Booking, 1)
	done := make(chan struct{})
	sub := &Subscription{C: out}
	sub.stopFn = func() {
		close(done)
		stopListen()
		if b.m != nil {
			b.m.ActiveSubscriptions.Dec()
		}
	}
	sub.remove = func() { b.remove(key, sub) }

	b.register(key, sub)

	go func() {
		defer close(out)
		query := func() ([]Booking, bool) {
			list, err := b.repo.ListByUser(context.Background(), owner)
			if err != nil {
				b.log.Warn("booking subscription: query failed",
					slog.String("user_id", owner),
					slog.String("error", err.Error()),
				)
				return nil, false
			}
			return list, true
		}

		if list, ok := query(); ok {
			deliverBookings(out, list)
		}
		for {
			select {
			case <-done:
				return
			case _, ok := <-signals:
				if !ok {
					// Feed gone; the view simply stops updating.
					b.log.Warn("booking subscription: feed closed", slog.String("user_id", owner))
					return
				}
				if list, ok := query(); ok {
					deliverBookings(out, list)
				}
			}
		}
	}()

	return sub, nil
}

func (b *Broker) SubscribeHistory(ctx context.Context, owner string) (*MirrorSubscription, error) {
	key := subKey(owner, ViewHistory)

	signals, stopListen, err := b.feed.Listen(ctx, owner, ViewHistory)
	if err != nil {
		return nil, err
	}

	out := make(chan []MirrorEntry, 1)
	done := make(chan struct{})
	sub := &MirrorSubscription{C: out}
	sub.stopFn = func() {
		close(done)
		stopListen()
		if b.m != nil {
			b.m.ActiveSubscriptions.Dec()
		}
	}
	sub.remove = func() { b.remove(key, sub) }

	b.register(key, sub)

	go func() {
		defer close(out)
		query := func() ([]MirrorEntry, bool) {
			list, err := b.mirror.List(context.Background(), owner)
			if err != nil {
				b.log.Warn("history subscription: query failed",
					slog.String("user_id", owner),
					slog.String("error", err.Error()),
				)
				return nil, false
			}
			return list, true
		}

		if list, ok := query(); ok {
			deliverMirror(out, list)
		}
		for {
			select {
			case <-done:
				return
			case _, ok := <-signals:
				if !ok {
					b.log.Warn("history subscription: feed closed", slog.String("user_id", owner))
					return
				}
				if list, ok := query(); ok {
					deliverMirror(out, list)
				}
			}
		}
	}()

	return sub, nil
}

// register installs sub as the sole subscription for key, stopping any
// previous holder while the lock is held.
func (b *Broker) register(key string, sub stopper) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subs[key]; ok {
		old.stop()
	}
	b.subs[key] = sub
	if b.m != nil {
		b.m.ActiveSubscriptions.Inc()
	}
}

// remove deregisters sub only if it is still the current holder of the
// key; a replacement that raced in stays registered.
func (b *Broker) remove(key string, sub stopper) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.subs[key]; ok && current == sub {
		delete(b.subs, key)
	}
}

func subKey(owner string, view View) string {
	return owner + "/" + string(view)
}

// deliverBookings replaces any undrained pending delivery so a slow
// consumer always sees the latest list, never a stale backlog.
func deliverBookings(ch chan []Booking, list []Booking) {
	for {
		select {
		case ch <- list:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func deliverMirror(ch chan []MirrorEntry, list []MirrorEntry) {
	for {
		select {
		case ch <- list:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
