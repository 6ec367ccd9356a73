package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/repository"
)

// friendNames returns the profile's friend names, sorted.
func friendNames(t *testing.T, s repository.Store, profileID string) []string {
	t.Helper()
	friends, err := s.Friends().ListByProfile(context.Background(), profileID)
	if err != nil {
		t.Fatalf("ListByProfile() error = %v", err)
	}
	names := make([]string, 0, len(friends))
	for _, f := range friends {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestLink_UnknownCode(t *testing.T) {
	store := newTestStore(t)
	svc := NewLinkingService(store, testLogger())

	res, err := svc.Link(context.Background(), "nosuchcode000000", 555)
	if err != nil {
		t.Fatalf("Link() error = %v — an unknown code is an outcome, not an error", err)
	}
	if res.Status != LinkStatusUnknownCode {
		t.Errorf("Status = %v, want LinkStatusUnknownCode", res.Status)
	}
	if res.Profile != nil {
		t.Error("unknown code must not resolve a profile")
	}
}

func TestLink_StraightAttach(t *testing.T) {
	store := newTestStore(t)
	svc := NewLinkingService(store, testLogger())
	ctx := context.Background()

	target := createWebProfile(t, store, "alice", "alicecode0000001")

	res, err := svc.Link(ctx, "alicecode0000001", 555)
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	if res.Status != LinkStatusLinked {
		t.Fatalf("Status = %v, want LinkStatusLinked", res.Status)
	}
	if res.Profile.ID != target.ID {
		t.Errorf("linked profile = %q, want %q", res.Profile.ID, target.ID)
	}
	if res.Moved != 0 || res.Discarded != 0 {
		t.Errorf("Moved/Discarded = %d/%d, want 0/0 — there was no shadow to merge", res.Moved, res.Discarded)
	}

	// The chat identity now resolves to the web profile.
	got, err := store.Profiles().GetByChatID(ctx, 555)
	if err != nil {
		t.Fatalf("GetByChatID() after link: %v", err)
	}
	if got.ID != target.ID {
		t.Errorf("chat resolves to %q, want %q", got.ID, target.ID)
	}
}

func TestLink_MergesShadowFriends(t *testing.T) {
	store := newTestStore(t)
	svc := NewLinkingService(store, testLogger())
	ctx := context.Background()

	target := createWebProfile(t, store, "alice", "alicecode0000001")
	addFriend(t, store, target.ID, "Bob", "1985-12-31")
	addFriend(t, store, target.ID, "Carol", "1992-07-20")

	shadow := createShadowProfile(t, store, 555, "shadowcode000001")
	addFriend(t, store, shadow.ID, "Ann", "1990-05-01")
	addFriend(t, store, shadow.ID, "Bob", "1985-12-31") // exact duplicate of target's Bob

	res, err := svc.Link(ctx, "alicecode0000001", 555)
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	if res.Moved != 1 {
		t.Errorf("Moved = %d, want 1 (Ann)", res.Moved)
	}
	if res.Discarded != 1 {
		t.Errorf("Discarded = %d, want 1 (duplicate Bob)", res.Discarded)
	}

	want := []string{"Ann", "Bob", "Carol"}
	got := friendNames(t, store, target.ID)
	if len(got) != len(want) {
		t.Fatalf("target friends = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("target friends = %v, want %v", got, want)
		}
	}

	// The shadow is emptied and detached but NOT deleted.
	if n := len(friendNames(t, store, shadow.ID)); n != 0 {
		t.Errorf("shadow still holds %d friends", n)
	}
	survivor, err := store.Profiles().GetByLinkCode(ctx, "shadowcode000001")
	if err != nil {
		t.Fatalf("shadow profile row was deleted: %v", err)
	}
	if survivor.HasChat() {
		t.Errorf("shadow still holds chat identity %d", survivor.ChatID)
	}
}

func TestLink_DedupIsCaseSensitive(t *testing.T) {
	store := newTestStore(t)
	svc := NewLinkingService(store, testLogger())

	target := createWebProfile(t, store, "alice", "alicecode0000001")
	addFriend(t, store, target.ID, "ann", "1990-05-01")

	shadow := createShadowProfile(t, store, 555, "shadowcode000001")
	addFriend(t, store, shadow.ID, "Ann", "1990-05-01")

	res, err := svc.Link(context.Background(), "alicecode0000001", 555)
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	// "Ann" and "ann" are different entries — both survive.
	if res.Moved != 1 || res.Discarded != 0 {
		t.Errorf("Moved/Discarded = %d/%d, want 1/0", res.Moved, res.Discarded)
	}
	if got := friendNames(t, store, target.ID); len(got) != 2 {
		t.Errorf("target friends = %v, want both spellings", got)
	}
}

func TestLink_AlreadyLinked(t *testing.T) {
	store := newTestStore(t)
	svc := NewLinkingService(store, testLogger())
	ctx := context.Background()

	createWebProfile(t, store, "alice", "alicecode0000001")

	if _, err := svc.Link(ctx, "alicecode0000001", 555); err != nil {
		t.Fatalf("first Link() error = %v", err)
	}

	res, err := svc.Link(ctx, "alicecode0000001", 555)
	if err != nil {
		t.Fatalf("second Link() error = %v", err)
	}
	if res.Status != LinkStatusLinked {
		t.Errorf("Status = %v, want LinkStatusLinked", res.Status)
	}
	if !res.AlreadyLinked {
		t.Error("AlreadyLinked = false, want true on a repeat link")
	}
}

func TestLink_LastLinkWins(t *testing.T) {
	store := newTestStore(t)
	svc := NewLinkingService(store, testLogger())
	ctx := context.Background()

	target := createWebProfile(t, store, "alice", "alicecode0000001")

	if _, err := svc.Link(ctx, "alicecode0000001", 111); err != nil {
		t.Fatalf("link from first chat: %v", err)
	}
	if _, err := svc.Link(ctx, "alicecode0000001", 222); err != nil {
		t.Fatalf("link from second chat: %v", err)
	}

	got, err := store.Profiles().GetByChatID(ctx, 222)
	if err != nil {
		t.Fatalf("GetByChatID(222) error = %v", err)
	}
	if got.ID != target.ID {
		t.Errorf("chat 222 resolves to %q, want %q", got.ID, target.ID)
	}
	// The older chat identity was displaced.
	if _, err := store.Profiles().GetByChatID(ctx, 111); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("chat 111 still resolves, error = %v", err)
	}
}

func TestLink_Validation(t *testing.T) {
	store := newTestStore(t)
	svc := NewLinkingService(store, testLogger())
	ctx := context.Background()

	if _, err := svc.Link(ctx, "", 555); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Link with empty code: error = %v, want ErrValidation", err)
	}
	if _, err := svc.Link(ctx, "somecode00000001", 0); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Link with zero chat: error = %v, want ErrValidation", err)
	}
}

// TestLink_AtomicOnMidMergeFailure simulates a failure halfway through the
// merge and checks that no partial state survives: either the whole link
// happens or none of it does.
func TestLink_AtomicOnMidMergeFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	target := createWebProfile(t, store, "alice", "alicecode0000001")
	shadow := createShadowProfile(t, store, 555, "shadowcode000001")
	addFriend(t, store, shadow.ID, "Ann", "1990-05-01")
	addFriend(t, store, shadow.ID, "Bob", "1985-12-31")

	boom := errors.New("boom")
	flaky := &flakyStore{inner: store, plan: &failPlan{n: 2, err: boom}}
	svc := NewLinkingService(flaky, testLogger())

	if _, err := svc.Link(ctx, "alicecode0000001", 555); !errors.Is(err, boom) {
		t.Fatalf("Link() error = %v, want injected failure", err)
	}

	// Both friends stayed with the shadow; none reached the target.
	if got := friendNames(t, store, shadow.ID); len(got) != 2 {
		t.Errorf("shadow friends after rollback = %v, want 2 entries", got)
	}
	if got := friendNames(t, store, target.ID); len(got) != 0 {
		t.Errorf("target friends after rollback = %v, want none", got)
	}

	// The chat identity still resolves to the shadow, not the target.
	holder, err := store.Profiles().GetByChatID(ctx, 555)
	if err != nil {
		t.Fatalf("GetByChatID() after rollback: %v", err)
	}
	if holder.ID != shadow.ID {
		t.Errorf("chat resolves to %q after rollback, want shadow %q", holder.ID, shadow.ID)
	}

	// A retry against the healthy store succeeds and moves everything.
	res, err := NewLinkingService(store, testLogger()).Link(ctx, "alicecode0000001", 555)
	if err != nil {
		t.Fatalf("retry Link() error = %v", err)
	}
	if res.Moved != 2 {
		t.Errorf("retry Moved = %d, want 2", res.Moved)
	}
}
