package account

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mykeysuk/handyelite/internal/auth"
	"github.com/mykeysuk/handyelite/internal/booking"
	"github.com/mykeysuk/handyelite/internal/metrics"
)

var ErrNotFound = errors.New("user not found")

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// CodeStore is the one-time-code slice of the auth package the phone
// flow needs.
type CodeStore interface {
	Issue(ctx context.Context, phone string) (challengeID, code string, err error)
	Verify(ctx context.Context, challengeID, code string) (phone string, err error)
}

type Service struct {
	repo     Repository
	tokens   *auth.Manager
	codes    CodeStore
	metrics  *metrics.Metrics
	location *time.Location
	log      *slog.Logger
}

func NewService(repo Repository, tokens *auth.Manager, codes CodeStore, m *metrics.Metrics, location *time.Location, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		codes:    codes,
		metrics:  m,
		location: location,
		log:      log,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, "", authErr(CodeEmailInUse, "email already registered")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, "", err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return User{}, "", authErr(CodeWeakPassword, err.Error())
		}
		return User{}, "", err
	}

	now := time.Now().In(s.location)
	user := User{
		UID:          primitive.NewObjectID().Hex(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         auth.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, "", authErr(CodeEmailInUse, "email already registered")
		}
		return User{}, "", err
	}

	token, err := s.tokens.NewAccessToken(user.UID, user.Role)
	if err != nil {
		return User{}, "", err
	}

	s.log.Info("account register: ok", slog.String("uid", user.UID))
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, "", authErr(CodeInvalidCredential, "no account for email")
		}
		return User{}, "", err
	}

	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return User{}, "", authErr(CodeInvalidCredential, "password mismatch")
	}

	token, err := s.tokens.NewAccessToken(user.UID, user.Role)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// RequestPhoneCode issues a one-time code for the phone number and
// returns the challenge id the verify step must echo back. Code
// delivery is handed to the SMS channel outside this service.
func (s *Service) RequestPhoneCode(ctx context.Context, phone string) (string, error) {
	if s.codes == nil {
		return "", errors.New("phone sign-in not configured")
	}
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return "", authErr(CodeInvalidPhone, "malformed phone number")
	}

	challengeID, code, err := s.codes.Issue(ctx, phone)
	if err != nil {
		if errors.Is(err, auth.ErrTooManyRequests) {
			return "", authErr(CodeTooManyRequests, "code request limit reached")
		}
		return "", err
	}

	if s.metrics != nil {
		s.metrics.OTPIssued.Inc()
	}
	// The code itself never reaches logs above debug.
	s.log.Debug("account otp: issued",
		slog.String("challenge_id", challengeID),
		slog.String("code", code),
	)
	return challengeID, nil
}

// VerifyPhoneCode consumes the challenge and signs the caller in,
// creating a phone-only account on first use.
func (s *Service) VerifyPhoneCode(ctx context.Context, req PhoneVerifyRequest) (User, string, error) {
	if s.codes == nil {
		return User{}, "", errors.New("phone sign-in not configured")
	}
	phone, err := s.codes.Verify(ctx, req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrCodeExpired):
			return User{}, "", authErr(CodeExpiredCode, "challenge expired")
		case errors.Is(err, auth.ErrCodeInvalid):
			return User{}, "", authErr(CodeInvalidCode, "wrong code")
		}
		return User{}, "", err
	}

	user, err := s.repo.GetByPhone(ctx, phone)
	if errors.Is(err, mongo.ErrNoDocuments) {
		now := time.Now().In(s.location)
		user = User{
			UID:       primitive.NewObjectID().Hex(),
			Phone:     phone,
			Role:      auth.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return User{}, "", err
		}
	} else if err != nil {
		return User{}, "", err
	}

	token, err := s.tokens.NewAccessToken(user.UID, user.Role)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

func (s *Service) Get(ctx context.Context, uid string) (User, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, uid string, req UpdateProfileRequest) (User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)

	user, err := s.repo.UpdateProfile(ctx, uid, req, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// IncrementBookings and Requester make the account service the user
// directory the booking writer consults.
func (s *Service) IncrementBookings(ctx context.Context, uid string) error {
	return s.repo.IncrementBookings(ctx, uid)
}

func (s *Service) Requester(ctx context.Context, uid string) (booking.Requester, error) {
	user, err := s.Get(ctx, uid)
	if err != nil {
		return booking.Requester{}, err
	}
	return booking.Requester{
		Name:  user.DisplayName(),
		Email: user.Email,
		Phone: user.Phone,
	}, nil
}
