package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignup() SignupRequest {
	return SignupRequest{
		Name:            "Jane Smith",
		Email:           "jane@example.com",
		Phone:           "+44 20-7946-0958",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "demo user", email: "test@example.com", password: "password123"},
		{name: "wrong password", email: "test@example.com", password: "password124", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "password123", wantErr: ErrInvalidCredentials},
		{name: "empty email", email: "", password: "password123", wantErr: ErrMissingCredentials},
		{name: "empty password", email: "test@example.com", password: "", wantErr: ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(Config{Pepper: []byte("pepper")})

			u, err := s.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1", u.ID)
			assert.Equal(t, "Test User", u.Name)
			assert.NotEqual(t, tt.password, u.PasswordHash)
		})
	}
}

func TestSignup_ThenLogin(t *testing.T) {
	s := NewService(Config{Pepper: []byte("pepper")})
	s.newID = func() string { return "2" }
	ctx := context.Background()

	u, err := s.Signup(ctx, validSignup())
	require.NoError(t, err)
	assert.Equal(t, "2", u.ID)
	assert.Equal(t, "Jane Smith", u.Name)

	got, err := s.Login(ctx, "jane@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)
}

func TestSignup_Duplicates(t *testing.T) {
	s := NewService(Config{})
	ctx := context.Background()

	sameEmail := validSignup()
	sameEmail.Email = "test@example.com"
	_, err := s.Signup(ctx, sameEmail)
	require.ErrorIs(t, err, ErrEmailExists)

	samePhone := validSignup()
	samePhone.Phone = "+1234567890"
	_, err = s.Signup(ctx, samePhone)
	require.ErrorIs(t, err, ErrPhoneExists)
}

func TestSignup_PasswordMismatch(t *testing.T) {
	s := NewService(Config{})
	req := validSignup()
	req.ConfirmPassword = "Secret124"

	_, err := s.Signup(context.Background(), req)
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SignupRequest)
		field  string
	}{
		{name: "short name", modify: func(r *SignupRequest) { r.Name = "J" }, field: "name"},
		{name: "name with digits", modify: func(r *SignupRequest) { r.Name = "Jane 2" }, field: "name"},
		{name: "short phone", modify: func(r *SignupRequest) { r.Phone = "12345" }, field: "phone"},
		{name: "phone with letters", modify: func(r *SignupRequest) { r.Phone = "+1 555 CALL NOW" }, field: "phone"},
		{name: "email without domain", modify: func(r *SignupRequest) { r.Email = "jane@" }, field: "email"},
		{name: "email with space", modify: func(r *SignupRequest) { r.Email = "ja ne@example.com" }, field: "email"},
		{name: "short password", modify: func(r *SignupRequest) { r.Password = "Ab1" }, field: "password"},
		{name: "password without upper", modify: func(r *SignupRequest) { r.Password = "secret123" }, field: "password"},
		{name: "password without digit", modify: func(r *SignupRequest) { r.Password = "SecretPass" }, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(Config{})
			req := validSignup()
			tt.modify(&req)

			_, err := s.Signup(context.Background(), req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Len(t, vErr.Fields, 1)
			assert.Contains(t, vErr.Fields, tt.field)
		})
	}
}

func TestSignup_ValidationReportsAllFields(t *testing.T) {
	s := NewService(Config{})

	_, err := s.Signup(context.Background(), SignupRequest{})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 4)
	assert.Contains(t, err.Error(), "email: Please enter a valid email address")
}

func TestLogin_LatencyRespectsContext(t *testing.T) {
	s := NewService(Config{Latency: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Login(ctx, "test@example.com", "password123")
	require.ErrorIs(t, err, context.Canceled)
}

func TestProfileUpdate_Apply(t *testing.T) {
	joined := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := DemoProfile(joined)
	name := "John Q. Doe"
	address := ""

	got := ProfileUpdate{Name: &name, Address: &address}.Apply(p)

	assert.Equal(t, "John Q. Doe", got.Name)
	assert.Empty(t, got.Address)
	assert.Equal(t, p.Email, got.Email)
	assert.Equal(t, joined, got.JoinDate)
}
