package account

import (
	"errors"
	"testing"
)

func TestAuthErrorMessageMapping(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{CodeInvalidCredential, "Invalid email or password."},
		{CodeEmailInUse, "An account with this email already exists."},
		{CodeWeakPassword, "Password must be at least 6 characters."},
		{CodeTooManyRequests, "Too many attempts. Please try again later."},
		{CodeInvalidCode, "The verification code is incorrect."},
		{CodeExpiredCode, "The verification code has expired. Request a new one."},
		{CodeInvalidPhone, "Please enter a valid phone number."},
	}
	for _, tc := range cases {
		err := authErr(tc.code, "raw detail")
		if got := err.Message(); got != tc.want {
			t.Fatalf("Message(%s) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestAuthErrorUnmappedCodeFallsBackToRaw(t *testing.T) {
	err := authErr("auth/unmapped-code", "raw provider text")
	if got := err.Message(); got != "raw provider text" {
		t.Fatalf("Message() = %q, want raw fallback", got)
	}
}

func TestAuthErrorError(t *testing.T) {
	err := authErr(CodeInvalidCredential, "password mismatch")
	if got := err.Error(); got != "auth/invalid-credential: password mismatch" {
		t.Fatalf("Error() = %q", got)
	}

	bare := &AuthError{Code: CodeInvalidCredential}
	if got := bare.Error(); got != "auth/invalid-credential" {
		t.Fatalf("Error() without raw = %q", got)
	}
}

func TestAuthErrorAs(t *testing.T) {
	var target *AuthError
	err := error(authErr(CodeEmailInUse, "dup"))
	if !errors.As(err, &target) {
		t.Fatalf("errors.As failed")
	}
	if target.Code != CodeEmailInUse {
		t.Fatalf("code = %q", target.Code)
	}
}
