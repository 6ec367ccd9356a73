package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/repository"
	"github.com/avolkov/birthdaybook/internal/repository/sqlite"
)

// Services are tested against the real repository layer on an in-memory
// database — the merge and rollback behavior we care about lives in the
// interaction between the two, and a hand-written fake would just re-test
// the fake.

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createWebProfile creates a user plus their profile, the way registration
// does, and returns the profile.
func createWebProfile(t *testing.T, s repository.Store, username, code string) *model.Profile {
	t.Helper()
	ctx := context.Background()

	u := &model.User{Username: username, PasswordHash: "x"}
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	p := &model.Profile{UserID: u.ID, LinkCode: code}
	if err := s.Profiles().Create(ctx, p); err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// createShadowProfile creates a chat-only profile.
func createShadowProfile(t *testing.T, s repository.Store, chatID int64, code string) *model.Profile {
	t.Helper()
	p := &model.Profile{ChatID: chatID, LinkCode: code}
	if err := s.Profiles().Create(context.Background(), p); err != nil {
		t.Fatalf("failed to create shadow profile: %v", err)
	}
	return p
}

// addFriend inserts a friend record directly through the repository.
func addFriend(t *testing.T, s repository.Store, profileID, name, birthday string) *model.Friend {
	t.Helper()
	bd, err := model.ParseDate(birthday)
	if err != nil {
		t.Fatalf("bad test birthday %q: %v", birthday, err)
	}
	f := &model.Friend{ProfileID: profileID, Name: name, Birthday: bd}
	if err := s.Friends().Create(context.Background(), f); err != nil {
		t.Fatalf("failed to create test friend: %v", err)
	}
	return f
}

// ---------------------------------------------------------------------------
// failure injection
// ---------------------------------------------------------------------------

// failPlan trips an injected error on the n-th friend Update. Shared by
// every view of a flakyStore so the count survives the InTx re-wrap.
type failPlan struct {
	calls int
	n     int
	err   error
}

// flakyStore wraps a real Store and injects a failure into the friend
// repository according to its plan. Everything else passes straight
// through, so a failing call happens mid-transaction against a real
// database — exactly the crash window the rollback tests need.
type flakyStore struct {
	inner repository.Store
	plan  *failPlan
}

func (s *flakyStore) Users() repository.UserRepository       { return s.inner.Users() }
func (s *flakyStore) Profiles() repository.ProfileRepository { return s.inner.Profiles() }

func (s *flakyStore) Friends() repository.FriendRepository {
	return &flakyFriends{inner: s.inner.Friends(), plan: s.plan}
}

func (s *flakyStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.inner.InTx(ctx, func(tx repository.Store) error {
		return fn(&flakyStore{inner: tx, plan: s.plan})
	})
}

type flakyFriends struct {
	inner repository.FriendRepository
	plan  *failPlan
}

func (f *flakyFriends) Create(ctx context.Context, friend *model.Friend) error {
	return f.inner.Create(ctx, friend)
}

func (f *flakyFriends) GetByID(ctx context.Context, id string) (*model.Friend, error) {
	return f.inner.GetByID(ctx, id)
}

func (f *flakyFriends) ListByProfile(ctx context.Context, profileID string) ([]model.Friend, error) {
	return f.inner.ListByProfile(ctx, profileID)
}

func (f *flakyFriends) Update(ctx context.Context, friend *model.Friend) error {
	f.plan.calls++
	if f.plan.calls == f.plan.n {
		return f.plan.err
	}
	return f.inner.Update(ctx, friend)
}

func (f *flakyFriends) Delete(ctx context.Context, id string) error {
	return f.inner.Delete(ctx, id)
}
