package notifications

import (
	"strings"
	"testing"
	"time"

	"github.com/mykeysuk/handyelite/internal/booking"
)

func sampleBooking() booking.Booking {
	return booking.Booking{
		ID:                 "abc123",
		BookingID:          "abc123",
		UserID:             "user-1",
		Service:            "Plumbing",
		PreferredDate:      "2025-03-01",
		PreferredTime:      "10:00",
		ServiceDescription: "Dripping kitchen tap",
		PaymentMethod:      "card",
		Status:             booking.StatusPending,
		CreatedAt:          time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC),
	}
}

func sampleRequester() booking.Requester {
	return booking.Requester{
		Name:  "Jo Bloggs",
		Email: "jo@example.com",
		Phone: "+447700900123",
	}
}

func TestBookingTemplateParamsCanonicalKeys(t *testing.T) {
	params := BookingTemplateParams(sampleBooking(), sampleRequester(), "Handy Elite Team")

	want := map[string]string{
		"booking_id":          "abc123",
		"service_name":        "Plumbing",
		"preferred_date":      "2025-03-01",
		"preferred_time":      "10:00",
		"payment_method":      "card",
		"booking_status":      "Pending",
		"service_description": "Dripping kitchen tap",
		"user_name":           "Jo Bloggs",
		"user_email":          "jo@example.com",
		"user_phone":          "+447700900123",
		"to_name":             "Handy Elite Team",
	}
	for key, value := range want {
		if got := params[key]; got != value {
			t.Fatalf("params[%q] = %q, want %q", key, got, value)
		}
	}
}

func TestBookingTemplateParamsAliasKeys(t *testing.T) {
	params := BookingTemplateParams(sampleBooking(), sampleRequester(), "Handy Elite Team")

	aliases := map[string]string{
		"bookingId":     "abc123",
		"service":       "Plumbing",
		"date":          "2025-03-01",
		"bookingDate":   "2025-03-01",
		"time":          "10:00",
		"bookingTime":   "10:00",
		"paymentMethod": "card",
		"status":        "Pending",
		"message":       "Dripping kitchen tap",
		"name":          "Jo Bloggs",
		"from_name":     "Jo Bloggs",
		"email":         "jo@example.com",
		"Email":         "jo@example.com",
		"from_email":    "jo@example.com",
		"phone":         "+447700900123",
		"from_phone":    "+447700900123",
	}
	for key, value := range aliases {
		if got := params[key]; got != value {
			t.Fatalf("params[%q] = %q, want %q", key, got, value)
		}
	}
}

func TestBuildBookingNotificationHTML(t *testing.T) {
	params := BookingTemplateParams(sampleBooking(), sampleRequester(), "Handy Elite Team")

	html, err := buildBookingNotificationHTML(params)
	if err != nil {
		t.Fatalf("buildBookingNotificationHTML error: %v", err)
	}
	for _, fragment := range []string{
		"Hello Handy Elite Team",
		"Plumbing",
		"abc123",
		"2025-03-01",
		"10:00",
		"Pending",
		"Jo Bloggs",
		"jo@example.com",
		"Dripping kitchen tap",
	} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("rendered email missing %q", fragment)
		}
	}
}

func TestBuildBookingNotificationHTMLNoDescription(t *testing.T) {
	b := sampleBooking()
	b.ServiceDescription = ""
	params := BookingTemplateParams(b, sampleRequester(), "Handy Elite Team")

	html, err := buildBookingNotificationHTML(params)
	if err != nil {
		t.Fatalf("buildBookingNotificationHTML error: %v", err)
	}
	if strings.Contains(html, "Details:") {
		t.Fatalf("empty description should drop the details block")
	}
}
