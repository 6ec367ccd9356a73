package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/repository"
)

// MaxFriendNameLength caps friend names — long enough for any real name,
// short enough to render everywhere.
const MaxFriendNameLength = 100

// GroupedFriends is the friend list bucketed for display: whose birthday
// is today, whose is tomorrow, and everyone else. The buckets compare
// month and day only — the year on a birthday never matters here.
type GroupedFriends struct {
	Today    []model.Friend `json:"today"`
	Tomorrow []model.Friend `json:"tomorrow"`
	Other    []model.Friend `json:"other"`
}

// FriendService is the ledger: CRUD over a profile's friend records plus
// the date-based queries.
//
// The clock is injected so tests can pin "today" — a test that only passes
// 364 days a year is worse than no test.
type FriendService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewFriendService creates a FriendService using the real clock.
func NewFriendService(store repository.Store, logger *slog.Logger) *FriendService {
	return &FriendService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// NewFriendServiceWithClock creates a FriendService with a fixed clock.
// Used by tests.
func NewFriendServiceWithClock(store repository.Store, logger *slog.Logger, now func() time.Time) *FriendService {
	return &FriendService{
		store:  store,
		logger: logger,
		now:    now,
	}
}

// Add validates and saves a new friend for the given profile.
func (s *FriendService) Add(ctx context.Context, profileID, name string, birthday model.Date) (*model.Friend, error) {
	name = strings.TrimSpace(name)

	if profileID == "" {
		return nil, apperror.ValidationFailed("profileId", "profile is required")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "friend name is required")
	}
	if len(name) > MaxFriendNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("friend name must be %d characters or less", MaxFriendNameLength))
	}
	if birthday.IsZero() {
		return nil, apperror.ValidationFailed("birthday", "birthday is required")
	}

	friend := &model.Friend{
		ProfileID: profileID,
		Name:      name,
		Birthday:  birthday,
	}

	if err := s.store.Friends().Create(ctx, friend); err != nil {
		s.logger.Error("failed to add friend",
			slog.String("profileID", profileID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/friend: adding friend: %w", err)
	}

	s.logger.Info("friend added",
		slog.String("id", friend.ID),
		slog.String("profileID", profileID),
	)

	return friend, nil
}

// List returns every friend of the profile. No order is guaranteed.
func (s *FriendService) List(ctx context.Context, profileID string) ([]model.Friend, error) {
	if profileID == "" {
		return nil, apperror.ValidationFailed("profileId", "profile is required")
	}

	friends, err := s.store.Friends().ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing friends: %w", err)
	}
	return friends, nil
}

// Today returns the friends whose birthday falls on the current date —
// month and day compared, year ignored, so both 1990-03-14 and 2001-03-14
// show up on March 14.
func (s *FriendService) Today(ctx context.Context, profileID string) ([]model.Friend, error) {
	friends, err := s.List(ctx, profileID)
	if err != nil {
		return nil, err
	}

	today := model.DateOf(s.now())
	result := make([]model.Friend, 0)
	for _, f := range friends {
		if f.Birthday.SameDayAs(today) {
			result = append(result, f)
		}
	}
	return result, nil
}

// Grouped buckets the full friend list into today / tomorrow / other for
// the list page. "Tomorrow" is calendar-aware: on December 31 it means
// January 1.
func (s *FriendService) Grouped(ctx context.Context, profileID string) (*GroupedFriends, error) {
	friends, err := s.List(ctx, profileID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := model.DateOf(now)
	tomorrow := model.DateOf(now.AddDate(0, 0, 1))

	grouped := &GroupedFriends{
		Today:    make([]model.Friend, 0),
		Tomorrow: make([]model.Friend, 0),
		Other:    make([]model.Friend, 0),
	}
	for _, f := range friends {
		switch {
		case f.Birthday.SameDayAs(today):
			grouped.Today = append(grouped.Today, f)
		case f.Birthday.SameDayAs(tomorrow):
			grouped.Tomorrow = append(grouped.Tomorrow, f)
		default:
			grouped.Other = append(grouped.Other, f)
		}
	}
	return grouped, nil
}

// Update edits a friend's name and birthday. The friend must belong to the
// given profile — editing someone else's record is Forbidden, and the
// check happens here rather than in the handler so the bot gets it too.
func (s *FriendService) Update(ctx context.Context, profileID, friendID, name string, birthday model.Date) (*model.Friend, error) {
	friend, err := s.owned(ctx, profileID, friendID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		if len(name) > MaxFriendNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("friend name must be %d characters or less", MaxFriendNameLength))
		}
		friend.Name = name
	}
	if !birthday.IsZero() {
		friend.Birthday = birthday
	}

	if err := s.store.Friends().Update(ctx, friend); err != nil {
		return nil, fmt.Errorf("service/friend: updating friend %s: %w", friendID, err)
	}

	s.logger.Info("friend updated", slog.String("id", friendID))
	return friend, nil
}

// Delete removes a friend. Same ownership rule as Update.
func (s *FriendService) Delete(ctx context.Context, profileID, friendID string) error {
	if _, err := s.owned(ctx, profileID, friendID); err != nil {
		return err
	}

	if err := s.store.Friends().Delete(ctx, friendID); err != nil {
		return fmt.Errorf("service/friend: deleting friend %s: %w", friendID, err)
	}

	s.logger.Info("friend deleted", slog.String("id", friendID))
	return nil
}

// owned fetches a friend and verifies it belongs to profileID.
func (s *FriendService) owned(ctx context.Context, profileID, friendID string) (*model.Friend, error) {
	if friendID == "" {
		return nil, apperror.ValidationFailed("id", "friend ID is required")
	}

	friend, err := s.store.Friends().GetByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if friend.ProfileID != profileID {
		return nil, apperror.Forbidden("this friend record belongs to another profile")
	}
	return friend, nil
}
