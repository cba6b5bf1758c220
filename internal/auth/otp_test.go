package auth

import "testing"

func TestChallengeAttemptCounting(t *testing.T) {
	entry := otpEntry{Phone: "+447700900123", Code: "123456"}

	for i := 0; i < maxVerifyAttempts-1; i++ {
		ok, exhausted := entry.attempt("000000")
		if ok {
			t.Fatalf("attempt %d: wrong code accepted", i+1)
		}
		if exhausted {
			t.Fatalf("attempt %d: challenge exhausted before the cap", i+1)
		}
	}

	ok, exhausted := entry.attempt("000000")
	if ok {
		t.Fatalf("final attempt: wrong code accepted")
	}
	if !exhausted {
		t.Fatalf("challenge should be exhausted after %d wrong codes", maxVerifyAttempts)
	}
}

func TestChallengeCorrectCodeAfterFailures(t *testing.T) {
	entry := otpEntry{Phone: "+447700900123", Code: "123456"}

	if ok, _ := entry.attempt("654321"); ok {
		t.Fatalf("wrong code accepted")
	}
	ok, exhausted := entry.attempt("123456")
	if !ok {
		t.Fatalf("correct code rejected after a failure")
	}
	if exhausted {
		t.Fatalf("correct code should not exhaust the challenge")
	}
}

func TestChallengeCorrectCodeFirstTry(t *testing.T) {
	entry := otpEntry{Phone: "+447700900123", Code: "123456"}
	ok, exhausted := entry.attempt("123456")
	if !ok || exhausted {
		t.Fatalf("attempt = (%v, %v), want (true, false)", ok, exhausted)
	}
	if entry.Attempts != 0 {
		t.Fatalf("correct code counted as a failure")
	}
}
