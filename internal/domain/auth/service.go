package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config configures a Service.
type Config struct {
	// Pepper is the HMAC key used to hash passwords.
	Pepper []byte
	// Latency delays every Login and Signup call to mimic a remote
	// backend. Zero disables the delay.
	Latency time.Duration
}

// DemoUser is the account every new Service starts with.
var DemoUser = SignupRequest{
	Name:     "Test User",
	Email:    "test@example.com",
	Phone:    "+1234567890",
	Password: "password123",
}

// Service is an in-memory user directory. Lookups are linear scans.
type Service struct {
	pepper  []byte
	latency time.Duration
	newID   func() string

	mu    sync.RWMutex
	users []User
}

// NewService creates a Service seeded with DemoUser.
func NewService(cfg Config) *Service {
	s := &Service{
		pepper:  cfg.Pepper,
		latency: cfg.Latency,
		newID:   func() string { return uuid.New().String() },
	}
	s.users = append(s.users, User{
		ID:           "1",
		Name:         DemoUser.Name,
		Email:        DemoUser.Email,
		Phone:        DemoUser.Phone,
		PasswordHash: s.hash(DemoUser.Password),
	})
	return s
}

// Login returns the user registered with email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if err := s.delay(ctx); err != nil {
		return nil, err
	}

	want, err := hex.DecodeString(s.hash(password))
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		stored, err := hex.DecodeString(u.PasswordHash)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare(want, stored) == 1 {
			found := u
			return &found, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// Signup validates req and registers a new user. Field problems are
// reported as *ValidationError; duplicates as ErrEmailExists or
// ErrPhoneExists.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := s.delay(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == req.Email {
			return nil, ErrEmailExists
		}
	}
	for _, u := range s.users {
		if u.Phone == req.Phone {
			return nil, ErrPhoneExists
		}
	}

	u := User{
		ID:           s.newID(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: s.hash(req.Password),
	}
	s.users = append(s.users, u)
	return &u, nil
}

func (s *Service) hash(password string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) delay(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
