package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mykeysuk/handyelite/internal/events"
	"github.com/mykeysuk/handyelite/internal/metrics"
)

var (
	ErrNotFound       = errors.New("booking not found")
	ErrMirrorNotFound = errors.New("mirror entry not found")
)

// View names the two live booking surfaces a client can subscribe to:
// the primary-store list and the secondary-store history.
type View string

const (
	ViewBookings View = "bookings"
	ViewHistory  View = "history"
)

// MirrorStore is the secondary store holding the denormalized history
// copy of each booking. Every write to it is best-effort.
type MirrorStore interface {
	Put(ctx context.Context, owner string, entry MirrorEntry) error
	Get(ctx context.Context, owner, bookingID string) (MirrorEntry, error)
	List(ctx context.Context, owner string) ([]MirrorEntry, error)
	Toggle(ctx context.Context, owner, bookingID string) (bool, error)
}

// Feed carries per-owner change signals between writers and live
// subscriptions.
type Feed interface {
	Publish(ctx context.Context, owner string, view View) error
	Listen(ctx context.Context, owner string, view View) (<-chan struct{}, func(), error)
}

// Requester is the contact information composed into the operator
// notification email.
type Requester struct {
	Name  string
	Email string
	Phone string
}

// UserDirectory is the slice of the accounts service a booking needs:
// the per-user booking counter and the requester contact details.
type UserDirectory interface {
	IncrementBookings(ctx context.Context, uid string) error
	Requester(ctx context.Context, uid string) (Requester, error)
}

type Notifier interface {
	SendBookingNotification(ctx context.Context, b Booking, requester Requester) (string, error)
}

type Service struct {
	repo      Repository
	mirror    MirrorStore
	users     UserDirectory
	notifier  Notifier
	publisher events.Publisher
	feed      Feed
	metrics   *metrics.Metrics
	location  *time.Location
	log       *slog.Logger
}

func NewService(
	repo Repository,
	mirror MirrorStore,
	users UserDirectory,
	notifier Notifier,
	publisher events.Publisher,
	feed Feed,
	m *metrics.Metrics,
	location *time.Location,
	log *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		mirror:    mirror,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		feed:      feed,
		metrics:   m,
		location:  location,
		log:       log,
	}
}

// Create writes the booking to the primary store, then runs the
// best-effort side channels: the history mirror, the owner's booking
// counter, the operator email and the lifecycle event. Only the
// primary insert can fail the call; once it succeeds the booking
// exists no matter what the side channels do.
func (s *Service) Create(ctx context.Context, owner string, req CreateRequest) (Booking, error) {
	now := time.Now().In(s.location)
	b := Booking{
		ID:                 primitive.NewObjectID().Hex(),
		UserID:             owner,
		Service:            req.Service,
		PreferredDate:      req.PreferredDate,
		PreferredTime:      req.PreferredTime,
		ServiceDescription: req.ServiceDescription,
		PaymentMethod:      req.PaymentMethod,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, b); err != nil {
		return Booking{}, err
	}

	if err := s.repo.SetSelfID(ctx, b.ID); err != nil {
		s.log.Warn("booking create: self id patch failed",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()),
		)
	} else {
		b.BookingID = b.ID
	}

	if err := s.mirror.Put(ctx, owner, MirrorEntry{
		BookingID:   b.ID,
		Service:     b.Service,
		BookingDate: b.PreferredDate,
		BookingTime: b.PreferredTime,
		Completed:   false,
	}); err != nil {
		s.log.Warn("booking create: mirror write failed",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.MirrorWriteFailures.Inc()
		}
	} else {
		s.notifyView(owner, ViewHistory)
	}

	if err := s.users.IncrementBookings(ctx, owner); err != nil {
		s.log.Warn("booking create: counter increment failed",
			slog.String("user_id", owner),
			slog.String("error", err.Error()),
		)
	}

	if s.notifier != nil {
		go s.sendOperatorNotification(b)
	}

	s.publishEvent(events.Event{
		Type:      events.TypeBookingCreated,
		BookingID: b.ID,
		UserID:    owner,
		Service:   b.Service,
		Status:    string(b.Status),
		At:        now,
	})
	s.notifyView(owner, ViewBookings)

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	s.log.Info("booking create: stored",
		slog.String("booking_id", b.ID),
		slog.String("user_id", owner),
		slog.String("service", b.Service),
	)
	return b, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	return b, nil
}

// List returns the owner's bookings newest first, the same order the
// live subscription delivers.
func (s *Service) List(ctx context.Context, owner string) ([]Booking, error) {
	return s.repo.ListByUser(ctx, owner)
}

func (s *Service) ListAdmin(ctx context.Context, filter ListFilter, limit, offset int64) ([]Booking, int64, error) {
	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// History returns the secondary-store view of the owner's bookings.
func (s *Service) History(ctx context.Context, owner string) ([]MirrorEntry, error) {
	return s.mirror.List(ctx, owner)
}

// ToggleStatus flips the primary record between Completed and Pending.
// Plain read-modify-write: concurrent togglers race and the last write
// wins, matching the store's own semantics.
func (s *Service) ToggleStatus(ctx context.Context, id string) (Status, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	next := current.Status.Toggled()
	updated, err := s.repo.UpdateStatus(ctx, id, next, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", err
	}

	s.publishEvent(events.Event{
		Type:      events.TypeBookingStatusChanged,
		BookingID: updated.ID,
		UserID:    updated.UserID,
		Service:   updated.Service,
		Status:    string(updated.Status),
		At:        updated.UpdatedAt,
	})
	s.notifyView(updated.UserID, ViewBookings)

	if s.metrics != nil {
		s.metrics.StatusToggles.Inc()
	}
	return updated.Status, nil
}

// ToggleMirror negates the completed flag on the history entry. The
// two toggles address the same booking id but neither keeps the other
// store in sync.
func (s *Service) ToggleMirror(ctx context.Context, owner, bookingID string) (bool, error) {
	completed, err := s.mirror.Toggle(ctx, owner, bookingID)
	if err != nil {
		return false, err
	}
	s.notifyView(owner, ViewHistory)
	return completed, nil
}

func (s *Service) sendOperatorNotification(b Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	requester, err := s.users.Requester(ctx, b.UserID)
	if err != nil {
		s.log.Warn("booking email: requester lookup failed",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()),
		)
	}

	messageID, err := s.notifier.SendBookingNotification(ctx, b, requester)
	if err != nil {
		s.log.Warn("booking email: send failed",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.EmailsSent.Inc()
	}
	s.log.Info("booking email: sent",
		slog.String("booking_id", b.ID),
		slog.String("message_id", messageID),
	)
}

func (s *Service) publishEvent(event events.Event) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("booking events: publish failed",
			slog.String("type", event.Type),
			slog.String("booking_id", event.BookingID),
			slog.String("error", err.Error()),
		)
		if s.metrics != nil {
			s.metrics.EventPublishFailures.Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.Inc()
	}
}

func (s *Service) notifyView(owner string, view View) {
	if s.feed == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.feed.Publish(ctx, owner, view); err != nil {
		s.log.Warn("booking feed: publish failed",
			slog.String("user_id", owner),
			slog.String("view", string(view)),
			slog.String("error", err.Error()),
		)
	}
}
