package booking

import (
	"fmt"
	"strings"
	"time"
)

// Status is the booking lifecycle state. It serializes to exactly one
// canonical form per state; parsing is forgiving about case and about
// the historical "in progress"/"In-Progress" spelling variants.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
	StatusInProgress Status = "In-Progress"
	StatusCompleted  Status = "Completed"
)

func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	case "completed":
		return StatusCompleted, nil
	}
	if strings.Contains(normalized, "progress") {
		return StatusInProgress, nil
	}
	return "", fmt.Errorf("unknown booking status %q", raw)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Toggled flips Completed back to Pending; every other state,
// including unknown historical values, toggles to Completed.
func (s Status) Toggled() Status {
	if strings.EqualFold(string(s), string(StatusCompleted)) {
		return StatusPending
	}
	return StatusCompleted
}

// Booking is the authoritative record in the primary store. BookingID
// duplicates the document key so exported snapshots carry their own id.
type Booking struct {
	ID                 string    `bson:"_id,omitempty" json:"id"`
	BookingID          string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	UserID             string    `bson:"userId" json:"userId"`
	Service            string    `bson:"service" json:"service"`
	PreferredDate      string    `bson:"preferredDate" json:"preferredDate"`
	PreferredTime      string    `bson:"preferredTime" json:"preferredTime"`
	ServiceDescription string    `bson:"serviceDescription,omitempty" json:"serviceDescription,omitempty"`
	PaymentMethod      string    `bson:"paymentMethod" json:"paymentMethod"`
	Status             Status    `bson:"status" json:"status"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MirrorEntry is the denormalized copy kept in the secondary store for
// the history view. It is keyed by the primary booking id, which it
// also stores, so the two records stay linked. Status collapses to a
// single completed flag there.
type MirrorEntry struct {
	BookingID   string `json:"bookingId"`
	Service     string `json:"service"`
	BookingDate string `json:"bookingDate"`
	BookingTime string `json:"bookingTime"`
	Completed   bool   `json:"status"`
}

type CreateRequest struct {
	Service            string `json:"service" validate:"required,max=120"`
	PreferredDate      string `json:"preferredDate" validate:"required,date"`
	PreferredTime      string `json:"preferredTime" validate:"required,clock"`
	ServiceDescription string `json:"serviceDescription" validate:"max=2000"`
	PaymentMethod      string `json:"paymentMethod" validate:"required,max=60"`
}

type ListFilter struct {
	UserID string
	Status Status
}
