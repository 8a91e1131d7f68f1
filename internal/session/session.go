// Package session ties the signed-in profile to the lifetime of its cart.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
)

// ErrSignedOut is returned by operations that need a signed-in user.
var ErrSignedOut = errors.New("not signed in")

// CartFactory constructs the cart engine for a new sign-in.
type CartFactory func() *cart.Engine

// Session holds the current profile and its cart. A cart exists exactly
// while a profile is signed in: it is created on sign-in and cleared and
// closed on logout.
type Session struct {
	newCart CartFactory
	now     func() time.Time

	mu      sync.Mutex
	profile *auth.Profile
	engine  *cart.Engine
}

// New creates a session. When initial is not nil the session starts signed
// in with that profile and a freshly constructed cart.
func New(initial *auth.Profile, newCart CartFactory) *Session {
	s := &Session{
		newCart: newCart,
		now:     time.Now,
	}
	if initial != nil {
		p := *initial
		s.profile = &p
		s.engine = newCart()
	}
	return s
}

// Cart returns the cart of the signed-in user.
func (s *Session) Cart() (*cart.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return nil, ErrSignedOut
	}
	return s.engine, nil
}

// Profile returns a copy of the signed-in profile.
func (s *Session) Profile() (auth.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return auth.Profile{}, ErrSignedOut
	}
	return *s.profile, nil
}

// SignIn replaces the profile with one built from u. The current cart is
// kept; a new one is created if the session was signed out.
func (s *Session) SignIn(u *auth.User) auth.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := auth.ProfileFromUser(u, s.now())
	s.profile = &p
	if s.engine == nil {
		s.engine = s.newCart()
	}
	return p
}

// UpdateProfile merges upd into the signed-in profile.
func (s *Session) UpdateProfile(upd auth.ProfileUpdate) (auth.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return auth.Profile{}, ErrSignedOut
	}
	p := upd.Apply(*s.profile)
	s.profile = &p
	return p, nil
}

// Logout signs the profile out, empties the cart and waits for the empty
// cart to be persisted. Logging out twice is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	engine := s.engine
	s.profile = nil
	s.engine = nil
	s.mu.Unlock()

	if engine == nil {
		return nil
	}
	engine.Clear()
	return engine.Close(ctx)
}

// Close stops the cart without clearing it, keeping the persisted cart for
// the next start.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	engine := s.engine
	s.engine = nil
	s.mu.Unlock()

	if engine == nil {
		return nil
	}
	return engine.Close(ctx)
}
