// Package accounts registers users, checks passwords and issues tokens.
package accounts

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/internal/validation"
	"github.com/aretw0/seee/pkg/ports"
	"github.com/aretw0/seee/pkg/referral"
)

// ErrInvalidToken is returned by Verify for malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

const (
	// CodeLength is the length of generated referral codes.
	CodeLength      = 10
	defaultTokenTTL = 24 * time.Hour
	issuer          = "seee"
)

// Referrals links a new account into the referral graph.
type Referrals interface {
	BuildReferralStructure(ctx context.Context, newUserID, referrerCode string) error
}

// RegisterRequest is the validated registration input.
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=64"`
	Password     string `json:"password" validate:"required,min=3,max=72"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,max=32"`
}

// Service implements registration and authentication.
type Service struct {
	store     ports.AccountStore
	referrals Referrals
	secret    []byte
	ttl       time.Duration
	cost      int
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// WithClock overrides the time source for account and token timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service. secret signs HS256 tokens.
func New(store ports.AccountStore, referrals Referrals, secret []byte, opts ...Option) *Service {
	s := &Service{
		store:     store,
		referrals: referrals,
		secret:    secret,
		ttl:       defaultTokenTTL,
		cost:      bcrypt.DefaultCost,
		logger:    logging.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and links it below the owner of the referral
// code. An unknown code is ignored: the account is created without a
// referrer.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*referral.Account, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.ReferralCode = strings.TrimSpace(req.ReferralCode)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := NewReferralCode()
	if err != nil {
		return nil, err
	}

	account := &referral.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		ReferralCode: code,
		ReferredBy:   req.ReferralCode,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	err = s.referrals.BuildReferralStructure(ctx, account.ID, req.ReferralCode)
	switch {
	case err == nil:
	case errors.Is(err, referral.ErrUnknownReferralCode):
		s.logger.Info("unknown referral code ignored", "user_id", account.ID, "code", req.ReferralCode)
	case errors.Is(err, referral.ErrCorruptGraph):
		s.logger.Error("referral graph is corrupt", "user_id", account.ID, "err", err)
	default:
		return account, fmt.Errorf("failed to build referral structure: %w", err)
	}

	s.logger.Info("account registered", "user_id", account.ID, "username", account.Username)
	return account, nil
}

// Login checks the password and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.store.AccountByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, referral.ErrAccountNotFound) {
		return "", referral.ErrBadCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", referral.ErrBadCredentials
	}
	return s.Issue(account.ID)
}

// Issue signs a token for a user ID.
func (s *Service) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify validates a token and returns its user ID.
func (s *Service) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Account returns the account of a user ID.
func (s *Service) Account(ctx context.Context, userID string) (*referral.Account, error) {
	return s.store.AccountByID(ctx, userID)
}

// NewReferralCode returns CodeLength uppercase URL-safe characters.
func NewReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	code := strings.ToUpper(base64.RawURLEncoding.EncodeToString(buf))
	return code[:CodeLength], nil
}
