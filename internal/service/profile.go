// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler / Bot (transport)  → parses requests, writes responses
//	Service (business layer)   → validates, enforces rules, orchestrates
//	Repository (data layer)    → reads/writes the database
//
// Services accept primitives and return domain errors — they know nothing
// about HTTP or Telegram, which is why the web API and the bot can share
// them unchanged. Every service takes a repository.Store (interface), not
// the concrete sqlite type, so tests inject in-memory mocks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/repository"
)

// linkCodeLength is the length of a linking code: 16 hex chars of a v4
// UUID. Short enough to type into a chat, random enough that guessing a
// live code is hopeless (64 bits).
const linkCodeLength = 16

// NewLinkCode generates a fresh linking code.
func NewLinkCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:linkCodeLength]
}

// ProfileService resolves and maintains profiles: the lazy shadow-profile
// creation for chat users, and the code/chat management operations behind
// the account page.
type ProfileService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(store repository.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		logger: logger,
	}
}

// ResolveByChat finds the profile holding the given chat identity, lazily
// creating a shadow profile (no owner, fresh linking code) for a
// previously-unseen chat account.
//
// Idempotent: repeated calls for the same chat identity return the same
// profile — the lookup short-circuits before any creation. The only side
// effect is the single INSERT on first contact.
//
// CONCURRENT FIRST CONTACT:
// Two simultaneous messages from a brand-new chat user could both miss the
// lookup and race to create. The unique index on chat_id lets exactly one
// INSERT win; the loser sees a conflict and re-reads the winner's row
// instead of failing the user's very first command.
func (s *ProfileService) ResolveByChat(ctx context.Context, chatID int64) (*model.Profile, error) {
	if chatID == 0 {
		return nil, apperror.ValidationFailed("chatId", "chat identity is required")
	}

	profile, err := s.store.Profiles().GetByChatID(ctx, chatID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/profile: looking up chat %d: %w", chatID, err)
	}

	profile = &model.Profile{
		ChatID:   chatID,
		LinkCode: NewLinkCode(),
	}
	err = s.store.Profiles().Create(ctx, profile)
	if errors.Is(err, apperror.ErrConflict) {
		// Lost a creation race — the profile exists now.
		return s.store.Profiles().GetByChatID(ctx, chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("service/profile: creating shadow profile for chat %d: %w", chatID, err)
	}

	s.logger.Info("shadow profile created",
		slog.String("profileID", profile.ID),
		slog.Int64("chatID", chatID),
	)

	return profile, nil
}

// GetByUser returns the profile owned by the given web account. Every
// registered user has one (created at registration), so NotFound here
// indicates a data problem, not a user mistake.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	profile, err := s.store.Profiles().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching profile of user %s: %w", userID, err)
	}

	return profile, nil
}

// RegenerateCode replaces the user's linking code with a fresh one and
// returns the updated profile. The old code stops resolving immediately —
// this is the manual rotation a user reaches for if a code leaked.
//
// A generated code colliding with an existing one is a 1-in-2^64 event,
// but the unique index would catch it; we retry a couple of times rather
// than surface such a freak conflict to the user.
func (s *ProfileService) RegenerateCode(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 3; attempt++ {
		profile.LinkCode = NewLinkCode()
		err = s.store.Profiles().Update(ctx, profile)
		if !errors.Is(err, apperror.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("service/profile: regenerating code for user %s: %w", userID, err)
	}

	s.logger.Info("linking code regenerated", slog.String("profileID", profile.ID))
	return profile, nil
}

// DetachChat removes the chat identity from the user's profile, returning
// the updated profile. The friends stay where they are — only the chat
// anchor is cleared. The next bot message from that chat account will get
// a brand-new shadow profile.
func (s *ProfileService) DetachChat(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !profile.HasChat() {
		return profile, nil // nothing attached — no-op
	}

	chatID := profile.ChatID
	profile.ChatID = 0
	if err := s.store.Profiles().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("service/profile: detaching chat from user %s: %w", userID, err)
	}

	s.logger.Info("chat identity detached",
		slog.String("profileID", profile.ID),
		slog.Int64("chatID", chatID),
	)

	return profile, nil
}
