// Package repository declares the storage interfaces the services program
// against. The concrete SQLite implementation lives in repository/sqlite;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/avolkov/birthdaybook/internal/model"
)

// UserRepository persists web accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// ProfileRepository persists profiles — the entities that own friend lists.
//
// The "not found" lookups (GetByChatID, GetByLinkCode, GetByUserID) return
// apperror.ErrNotFound rather than (nil, nil); callers use errors.Is to
// branch on it. Uniqueness of user_id, chat_id and link_code is enforced by
// the store itself (unique indexes), so concurrent creations cannot race
// past an application-level check — violations surface as apperror.ErrConflict.
type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	GetByChatID(ctx context.Context, chatID int64) (*model.Profile, error)
	GetByLinkCode(ctx context.Context, code string) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
}

// FriendRepository persists birthday records.
type FriendRepository interface {
	Create(ctx context.Context, friend *model.Friend) error
	GetByID(ctx context.Context, id string) (*model.Friend, error)
	ListByProfile(ctx context.Context, profileID string) ([]model.Friend, error)
	Update(ctx context.Context, friend *model.Friend) error
	Delete(ctx context.Context, id string) error
}

// Store bundles the repositories together with a transaction-scoping
// primitive.
//
// WHY ONE INTERFACE INSTEAD OF PASSING THREE REPOSITORIES AROUND?
// The linking merge must mutate friends AND profiles as one all-or-nothing
// unit. If services held three independent repository values there would be
// no way to express "these five writes commit or roll back together".
// InTx hands the callback a Store whose repositories are all bound to the
// same transaction; returning an error (or panicking) rolls everything
// back, returning nil commits.
//
// A partial merge — some friends reassigned but the chat identity attach
// missing — must never be observable, so the linking service does ALL of
// its mutation inside one InTx callback.
type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Friends() FriendRepository

	// InTx runs fn inside a single store transaction. The Store passed to
	// fn must only be used within the callback.
	InTx(ctx context.Context, fn func(Store) error) error
}
