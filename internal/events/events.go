// Package events publishes booking lifecycle events for downstream
// consumers. Publishing is strictly best-effort: a failed publish is
// logged by the caller and never fails the user action.
package events

import (
	"context"
	"time"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
)

type Event struct {
	Type      string    `json:"type"`
	BookingID string    `json:"bookingId"`
	UserID    string    `json:"userId"`
	Service   string    `json:"service,omitempty"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Publish(ctx context.Context, event Event) error { return nil }

func (n *Noop) Close() error { return nil }
