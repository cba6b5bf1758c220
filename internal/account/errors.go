package account

// Provider-style error codes, kept in the auth/ namespace the site
// frontend already matches against.
const (
	CodeInvalidCredential = "auth/invalid-credential"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeInvalidCode       = "auth/invalid-verification-code"
	CodeExpiredCode       = "auth/code-expired"
	CodeInvalidPhone      = "auth/invalid-phone-number"
)

var messages = map[string]string{
	CodeInvalidCredential: "Invalid email or password.",
	CodeEmailInUse:        "An account with this email already exists.",
	CodeWeakPassword:      "Password must be at least 6 characters.",
	CodeTooManyRequests:   "Too many attempts. Please try again later.",
	CodeInvalidCode:       "The verification code is incorrect.",
	CodeExpiredCode:       "The verification code has expired. Request a new one.",
	CodeInvalidPhone:      "Please enter a valid phone number.",
}

// AuthError carries a provider error code and the raw message behind
// it. Message resolves the user-facing text; unmapped codes fall back
// to the raw message.
type AuthError struct {
	Code string
	Raw  string
}

func (e *AuthError) Error() string {
	if e.Raw != "" {
		return e.Code + ": " + e.Raw
	}
	return e.Code
}

func (e *AuthError) Message() string {
	if msg, ok := messages[e.Code]; ok {
		return msg
	}
	return e.Raw
}

func authErr(code, raw string) *AuthError {
	return &AuthError{Code: code, Raw: raw}
}
