package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrTooManyRequests = errors.New("too many code requests")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeInvalid     = errors.New("verification code invalid")
)

// OTPStore issues and verifies phone one-time codes. Codes live in
// Redis under a uuid challenge id and are consumed on first successful
// verification.
type OTPStore struct {
	client        *redis.Client
	codeTTL       time.Duration
	maxRequests   int
	requestWindow time.Duration
}

// A challenge survives this many wrong codes before it is destroyed,
// matching the lockout behavior of hosted identity providers.
const maxVerifyAttempts = 5

type otpEntry struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	Attempts int    `json:"attempts,omitempty"`
}

// attempt checks code against the entry, counting failures. exhausted
// reports that the entry has absorbed its last allowed failure and
// must not be kept.
func (e *otpEntry) attempt(code string) (ok, exhausted bool) {
	if e.Code == code {
		return true, false
	}
	e.Attempts++
	return false, e.Attempts >= maxVerifyAttempts
}

func NewOTPStore(client *redis.Client, codeTTL time.Duration, maxRequests int) *OTPStore {
	return &OTPStore{
		client:        client,
		codeTTL:       codeTTL,
		maxRequests:   maxRequests,
		requestWindow: time.Hour,
	}
}

// Issue generates a six digit code for the phone number and returns the
// challenge id the caller must present together with the code.
func (s *OTPStore) Issue(ctx context.Context, phone string) (challengeID, code string, err error) {
	countKey := "otp:req:" + phone
	count, err := s.client.Incr(ctx, countKey).Result()
	if err != nil {
		return "", "", err
	}
	if count == 1 {
		_ = s.client.Expire(ctx, countKey, s.requestWindow).Err()
	}
	if s.maxRequests > 0 && count > int64(s.maxRequests) {
		return "", "", ErrTooManyRequests
	}

	code, err = randomCode()
	if err != nil {
		return "", "", err
	}
	challengeID = uuid.NewString()

	raw, err := json.Marshal(otpEntry{Phone: phone, Code: code})
	if err != nil {
		return "", "", err
	}
	if err := s.client.Set(ctx, "otp:challenge:"+challengeID, raw, s.codeTTL).Err(); err != nil {
		return "", "", err
	}
	return challengeID, code, nil
}

// Verify consumes the challenge and returns the phone number it was
// issued for. A missing challenge is reported as expired. Wrong codes
// are counted against the challenge; once the attempt cap is reached
// the challenge is destroyed, so a held challenge id cannot be used to
// walk the code space within the TTL.
func (s *OTPStore) Verify(ctx context.Context, challengeID, code string) (string, error) {
	key := "otp:challenge:" + challengeID
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return "", ErrCodeExpired
	}
	if err != nil {
		return "", err
	}

	var entry otpEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", err
	}

	ok, exhausted := entry.attempt(code)
	if !ok {
		if exhausted {
			_ = s.client.Del(ctx, key).Err()
			return "", ErrCodeInvalid
		}
		if updated, err := json.Marshal(entry); err == nil {
			_ = s.client.Set(ctx, key, updated, redis.KeepTTL).Err()
		}
		return "", ErrCodeInvalid
	}

	_ = s.client.Del(ctx, key).Err()
	return entry.Phone, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
