package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mykeysuk/handyelite/internal/events"
)

type fakeRepo struct {
	mu       sync.Mutex
	byID     map[string]Booking
	selfErr  error
	inserted []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]Booking)}
}

func (r *fakeRepo) Insert(ctx context.Context, b Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[b.ID] = b
	r.inserted = append(r.inserted, b.ID)
	return nil
}

func (r *fakeRepo) SetSelfID(ctx context.Context, id string) error {
	if r.selfErr != nil {
		return r.selfErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	b.BookingID = id
	r.byID[id] = b
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return Booking{}, mongo.ErrNoDocuments
	}
	return b, nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID string) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Booking, 0)
	for _, b := range r.byID {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Booking, 0)
	for _, b := range r.byID {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	items, _ := r.List(ctx, filter, 0, 0)
	return int64(len(items)), nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return Booking{}, mongo.ErrNoDocuments
	}
	b.Status = status
	b.UpdatedAt = now
	r.byID[id] = b
	return b, nil
}

type fakeMirror struct {
	mu      sync.Mutex
	entries map[string]map[string]MirrorEntry
	putErr  error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{entries: make(map[string]map[string]MirrorEntry)}
}

func (m *fakeMirror) Put(ctx context.Context, owner string, entry MirrorEntry) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[owner] == nil {
		m.entries[owner] = make(map[string]MirrorEntry)
	}
	m.entries[owner][entry.BookingID] = entry
	return nil
}

func (m *fakeMirror) Get(ctx context.Context, owner, bookingID string) (MirrorEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[owner][bookingID]
	if !ok {
		return MirrorEntry{}, ErrMirrorNotFound
	}
	return entry, nil
}

func (m *fakeMirror) List(ctx context.Context, owner string) ([]MirrorEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MirrorEntry, 0)
	for _, entry := range m.entries[owner] {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID > out[j].BookingID })
	return out, nil
}

func (m *fakeMirror) Toggle(ctx context.Context, owner, bookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[owner][bookingID]
	if !ok {
		return false, ErrMirrorNotFound
	}
	entry.Completed = !entry.Completed
	m.entries[owner][bookingID] = entry
	return entry.Completed, nil
}

type fakeUsers struct {
	mu         sync.Mutex
	increments map[string]int
	incErr     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{increments: make(map[string]int)}
}

func (u *fakeUsers) IncrementBookings(ctx context.Context, uid string) error {
	if u.incErr != nil {
		return u.incErr
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.increments[uid]++
	return nil
}

func (u *fakeUsers) Requester(ctx context.Context, uid string) (Requester, error) {
	return Requester{Name: "Jo Bloggs", Email: "jo@example.com", Phone: "+447700900001"}, nil
}

type fakeNotifier struct {
	sent chan Booking
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan Booking, 4)}
}

func (n *fakeNotifier) SendBookingNotification(ctx context.Context, b Booking, requester Requester) (string, error) {
	n.sent <- b
	return "msg-1", n.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

type fakeFeed struct {
	mu      sync.Mutex
	signals map[string]int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{signals: make(map[string]int)}
}

func (f *fakeFeed) Publish(ctx context.Context, owner string, view View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals[owner+"/"+string(view)]++
	return nil
}

func (f *fakeFeed) Listen(ctx context.Context, owner string, view View) (<-chan struct{}, func(), error) {
	ch := make(chan struct{})
	return ch, func() {}, nil
}

func (f *fakeFeed) count(owner string, view View) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signals[owner+"/"+string(view)]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceFixture struct {
	repo      *fakeRepo
	mirror    *fakeMirror
	users     *fakeUsers
	notifier  *fakeNotifier
	publisher *fakePublisher
	feed      *fakeFeed
	service   *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      newFakeRepo(),
		mirror:    newFakeMirror(),
		users:     newFakeUsers(),
		notifier:  newFakeNotifier(),
		publisher: &fakePublisher{},
		feed:      newFakeFeed(),
	}
	f.service = NewService(f.repo, f.mirror, f.users, f.notifier, f.publisher, f.feed, nil, time.UTC, discardLogger())
	return f
}

func waitForEmail(t *testing.T, n *fakeNotifier) Booking {
	t.Helper()
	select {
	case b := <-n.sent:
		return b
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for operator email")
		return Booking{}
	}
}

func TestCreateBooking(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	req := CreateRequest{
		Service:       "Plumbing",
		PreferredDate: "2025-03-01",
		PreferredTime: "10:00",
		PaymentMethod: "card",
	}
	b, err := f.service.Create(ctx, "user-1", req)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if b.Status != StatusPending {
		t.Fatalf("new booking status = %q, want Pending", b.Status)
	}
	if b.ID == "" {
		t.Fatalf("expected generated booking id")
	}
	if b.BookingID != b.ID {
		t.Fatalf("bookingId = %q, want self reference %q", b.BookingID, b.ID)
	}

	stored, err := f.repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("stored booking lookup: %v", err)
	}
	if stored.BookingID != b.ID {
		t.Fatalf("stored bookingId = %q, want %q", stored.BookingID, b.ID)
	}

	entry, err := f.mirror.Get(ctx, "user-1", b.ID)
	if err != nil {
		t.Fatalf("mirror entry lookup: %v", err)
	}
	if entry.Completed {
		t.Fatalf("new mirror entry should not be completed")
	}
	if entry.Service != "Plumbing" || entry.BookingDate != "2025-03-01" || entry.BookingTime != "10:00" {
		t.Fatalf("unexpected mirror entry: %+v", entry)
	}

	if got := f.users.increments["user-1"]; got != 1 {
		t.Fatalf("booking counter incremented %d times, want 1", got)
	}

	emailed := waitForEmail(t, f.notifier)
	if emailed.ID != b.ID {
		t.Fatalf("emailed booking id = %q, want %q", emailed.ID, b.ID)
	}

	published := f.publisher.published()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.TypeBookingCreated || published[0].BookingID != b.ID {
		t.Fatalf("unexpected event: %+v", published[0])
	}

	if f.feed.count("user-1", ViewBookings) != 1 {
		t.Fatalf("expected one bookings feed signal")
	}
	if f.feed.count("user-1", ViewHistory) != 1 {
		t.Fatalf("expected one history feed signal")
	}
}

func TestCreateBookingMirrorFailureIsIsolated(t *testing.T) {
	f := newServiceFixture()
	f.mirror.putErr = errors.New("mirror down")
	ctx := context.Background()

	b, err := f.service.Create(ctx, "user-1", CreateRequest{
		Service:       "Electrical",
		PreferredDate: "2025-04-02",
		PreferredTime: "14:00",
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("Create should succeed when mirror write fails, got %v", err)
	}

	if _, err := f.repo.GetByID(ctx, b.ID); err != nil {
		t.Fatalf("primary record missing: %v", err)
	}
	if _, err := f.mirror.Get(ctx, "user-1", b.ID); !errors.Is(err, ErrMirrorNotFound) {
		t.Fatalf("expected no mirror entry, got %v", err)
	}
	if f.feed.count("user-1", ViewHistory) != 0 {
		t.Fatalf("history feed should not signal on mirror failure")
	}
	if f.feed.count("user-1", ViewBookings) != 1 {
		t.Fatalf("bookings feed should still signal")
	}
	waitForEmail(t, f.notifier)
}

func TestCreateBookingCounterFailureIsIsolated(t *testing.T) {
	f := newServiceFixture()
	f.users.incErr = errors.New("counter down")

	b, err := f.service.Create(context.Background(), "user-1", CreateRequest{
		Service:       "Carpentry",
		PreferredDate: "2025-05-10",
		PreferredTime: "09:00",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("Create should succeed when counter increment fails, got %v", err)
	}
	if _, err := f.repo.GetByID(context.Background(), b.ID); err != nil {
		t.Fatalf("primary record missing: %v", err)
	}
	waitForEmail(t, f.notifier)
}

func TestCreateBookingSelfIDPatchFailure(t *testing.T) {
	f := newServiceFixture()
	f.repo.selfErr = errors.New("patch failed")

	b, err := f.service.Create(context.Background(), "user-1", CreateRequest{
		Service:       "Tiling",
		PreferredDate: "2025-06-01",
		PreferredTime: "11:00",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("Create should survive a failed self id patch, got %v", err)
	}
	if b.BookingID != "" {
		t.Fatalf("bookingId should stay empty when the patch fails, got %q", b.BookingID)
	}
	waitForEmail(t, f.notifier)
}

func TestToggleStatus(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	b, err := f.service.Create(ctx, "user-1", CreateRequest{
		Service:       "Plumbing",
		PreferredDate: "2025-03-01",
		PreferredTime: "10:00",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	waitForEmail(t, f.notifier)

	status, err := f.service.ToggleStatus(ctx, b.ID)
	if err != nil {
		t.Fatalf("ToggleStatus error: %v", err)
	}
	if status != StatusCompleted {
		t.Fatalf("first toggle = %q, want Completed", status)
	}

	status, err = f.service.ToggleStatus(ctx, b.ID)
	if err != nil {
		t.Fatalf("ToggleStatus error: %v", err)
	}
	if status != StatusPending {
		t.Fatalf("second toggle = %q, want Pending", status)
	}

	published := f.publisher.published()
	if len(published) != 3 {
		t.Fatalf("published %d events, want 3", len(published))
	}
	if published[1].Type != events.TypeBookingStatusChanged {
		t.Fatalf("unexpected event type %q", published[1].Type)
	}
}

func TestToggleStatusNotFound(t *testing.T) {
	f := newServiceFixture()
	if _, err := f.service.ToggleStatus(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleMirror(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	b, err := f.service.Create(ctx, "user-1", CreateRequest{
		Service:       "Plumbing",
		PreferredDate: "2025-03-01",
		PreferredTime: "10:00",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	waitForEmail(t, f.notifier)

	completed, err := f.service.ToggleMirror(ctx, "user-1", b.ID)
	if err != nil {
		t.Fatalf("ToggleMirror error: %v", err)
	}
	if !completed {
		t.Fatalf("first mirror toggle should report completed")
	}

	completed, err = f.service.ToggleMirror(ctx, "user-1", b.ID)
	if err != nil {
		t.Fatalf("ToggleMirror error: %v", err)
	}
	if completed {
		t.Fatalf("second mirror toggle should report not completed")
	}

	// The mirror toggle never touches the primary record.
	stored, err := f.repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("primary lookup: %v", err)
	}
	if stored.Status != StatusPending {
		t.Fatalf("primary status changed to %q by mirror toggle", stored.Status)
	}
}

func TestToggleMirrorMissingEntry(t *testing.T) {
	f := newServiceFixture()
	if _, err := f.service.ToggleMirror(context.Background(), "user-1", "missing"); !errors.Is(err, ErrMirrorNotFound) {
		t.Fatalf("expected ErrMirrorNotFound, got %v", err)
	}
}
