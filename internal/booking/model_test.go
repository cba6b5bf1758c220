package booking

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"Pending", StatusPending},
		{"pending", StatusPending},
		{"  APPROVED ", StatusApproved},
		{"rejected", StatusRejected},
		{"Completed", StatusCompleted},
		{"In-Progress", StatusInProgress},
		{"in progress", StatusInProgress},
		{"inprogress", StatusInProgress},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q) error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseStatusUnknown(t *testing.T) {
	if _, err := ParseStatus("cancelled"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if _, err := ParseStatus(""); err == nil {
		t.Fatalf("expected error for empty status")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusInProgress, StatusCompleted} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if Status("Cancelled").Valid() {
		t.Fatalf("expected Cancelled to be invalid")
	}
}

func TestStatusToggled(t *testing.T) {
	if got := StatusCompleted.Toggled(); got != StatusPending {
		t.Fatalf("Completed toggled to %q, want Pending", got)
	}
	if got := Status("completed").Toggled(); got != StatusPending {
		t.Fatalf("lowercase completed toggled to %q, want Pending", got)
	}
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusInProgress, Status("whatever")} {
		if got := s.Toggled(); got != StatusCompleted {
			t.Fatalf("%q toggled to %q, want Completed", s, got)
		}
	}
}

// The history view reads the completed flag from the "status" field of
// the stored entry; a tag change would silently break every stored
// record.
func TestMirrorEntryWireFormat(t *testing.T) {
	entry := MirrorEntry{
		BookingID:   "abc123",
		Service:     "Plumbing",
		BookingDate: "2025-03-01",
		BookingTime: "10:00",
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !strings.Contains(string(raw), `"status":false`) {
		t.Fatalf("completed flag not serialized under status: %s", raw)
	}
	if !strings.Contains(string(raw), `"bookingId":"abc123"`) {
		t.Fatalf("booking id missing from entry: %s", raw)
	}

	var decoded MirrorEntry
	if err := json.Unmarshal([]byte(`{"bookingId":"abc123","service":"Plumbing","bookingDate":"2025-03-01","bookingTime":"10:00","status":true}`), &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !decoded.Completed {
		t.Fatalf("status field did not populate the completed flag")
	}
}

func TestStatusToggleRoundTrip(t *testing.T) {
	if got := StatusCompleted.Toggled().Toggled(); got != StatusCompleted {
		t.Fatalf("double toggle from Completed = %q", got)
	}
	if got := StatusPending.Toggled().Toggled(); got != StatusPending {
		t.Fatalf("double toggle from Pending = %q", got)
	}
}
