package service

import (
	"context"
	"errors"
	"testing"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/auth"
	"github.com/avolkov/birthdaybook/internal/repository"
)

// newAuthService builds an AuthService on the given store with test-grade
// crypto: minimum bcrypt cost, fixed secret.
func newAuthService(t *testing.T, store repository.Store) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	passwords := auth.NewPasswordServiceWithCost(4)
	return NewAuthService(store, tokens, passwords, testLogger())
}

func TestRegister(t *testing.T) {
	store := newTestStore(t)
	svc := newAuthService(t, store)
	ctx := context.Background()

	res, err := svc.Register(ctx, "alice", "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if res.User.ID == "" {
		t.Error("Register() did not assign a user ID")
	}
	if res.Token == "" {
		t.Error("Register() did not issue a token")
	}
	if res.User.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plaintext")
	}

	// Registration must have created the profile too, with a usable code.
	profile, err := store.Profiles().GetByUserID(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("no profile after registration: %v", err)
	}
	if len(profile.LinkCode) != linkCodeLength {
		t.Errorf("LinkCode length = %d, want %d", len(profile.LinkCode), linkCodeLength)
	}
	if profile.HasChat() {
		t.Error("fresh profile should have no chat identity")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	svc := newAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "hunter2hunter2"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(ctx, "alice", "", "differentpass99")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	store := newTestStore(t)
	svc := newAuthService(t, store)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"username too short", "ab", "hunter2hunter2"},
		{"username with spaces", "al ice", "hunter2hunter2"},
		{"password too short", "alice", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, "", tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	store := newTestStore(t)
	svc := newAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "hunter2hunter2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res, err := svc.Login(ctx, "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token == "" {
		t.Error("Login() did not issue a token")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	store := newTestStore(t)
	svc := newAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "hunter2hunter2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Unknown user and wrong password must be indistinguishable.
	_, errUnknown := svc.Login(ctx, "nobody", "hunter2hunter2")
	_, errWrongPass := svc.Login(ctx, "alice", "wrong-password")

	if !errors.Is(errUnknown, apperror.ErrUnauthorized) {
		t.Errorf("unknown user: error = %v, want ErrUnauthorized", errUnknown)
	}
	if !errors.Is(errWrongPass, apperror.ErrUnauthorized) {
		t.Errorf("wrong password: error = %v, want ErrUnauthorized", errWrongPass)
	}
	if errUnknown.Error() != errWrongPass.Error() {
		t.Errorf("error messages differ: %q vs %q — enumeration leak", errUnknown, errWrongPass)
	}
}

func TestGetUserByID(t *testing.T) {
	store := newTestStore(t)
	svc := newAuthService(t, store)
	ctx := context.Background()

	res, err := svc.Register(ctx, "alice", "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.GetUserByID(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
}
