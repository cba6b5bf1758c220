package validation

import "testing"

type bookingForm struct {
	Date  string `validate:"required,date"`
	Time  string `validate:"required,clock"`
	Phone string `validate:"omitempty,phone"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	ok := bookingForm{Date: "2025-03-01", Time: "10:00", Phone: "+447700900123"}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	cases := []bookingForm{
		{Date: "01/03/2025", Time: "10:00"},
		{Date: "2025-03-01", Time: "10:00:00"},
		{Date: "2025-03-01", Time: "25:00"},
		{Date: "2025-03-01", Time: "10:00", Phone: "not-a-phone"},
		{Date: "", Time: "10:00"},
	}
	for i, form := range cases {
		if err := v.Struct(form); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, form)
		}
	}
}

func TestValidationErrorsHelper(t *testing.T) {
	v := New()
	err := v.Struct(bookingForm{Date: "bad", Time: "10:00"})
	if err == nil {
		t.Fatalf("expected error")
	}
	ve := v.ValidationErrors(err)
	if len(ve) == 0 {
		t.Fatalf("expected typed validation errors")
	}
	if ve[0].Field() != "Date" {
		t.Fatalf("field = %q, want Date", ve[0].Field())
	}
}
