package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/repository"
)

// compile-time check that *FriendRepo implements repository.FriendRepository
var _ repository.FriendRepository = (*FriendRepo)(nil)

// FriendRepo persists birthday records.
//
// Birthdays are stored as TEXT in "YYYY-MM-DD" form — model.Date implements
// driver.Valuer/sql.Scanner so it moves through ExecContext/Scan like any
// other field.
type FriendRepo struct {
	q querier
}

// Create inserts a new friend record owned by friend.ProfileID.
func (r *FriendRepo) Create(ctx context.Context, friend *model.Friend) error {
	friend.ID = xid.New().String()
	now := time.Now()
	friend.CreatedAt = now
	friend.UpdatedAt = now

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO friends (id, profile_id, name, birthday, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		friend.ID,
		friend.ProfileID,
		friend.Name,
		friend.Birthday,
		friend.CreatedAt,
		friend.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting friend %q: %w", friend.Name, err)
	}

	return nil
}

// GetByID retrieves a single friend record.
func (r *FriendRepo) GetByID(ctx context.Context, id string) (*model.Friend, error) {
	var f model.Friend

	err := r.q.QueryRowContext(ctx,
		`SELECT id, profile_id, name, birthday, created_at, updated_at
		 FROM friends WHERE id = ?`,
		id,
	).Scan(
		&f.ID,
		&f.ProfileID,
		&f.Name,
		&f.Birthday,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("friend", id)
		}
		return nil, fmt.Errorf("sqlite: getting friend %s: %w", id, err)
	}

	return &f, nil
}

// ListByProfile returns every friend owned by the given profile. No order
// is guaranteed beyond what SQLite happens to return; callers that need
// grouping or sorting do it themselves.
func (r *FriendRepo) ListByProfile(ctx context.Context, profileID string) ([]model.Friend, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, profile_id, name, birthday, created_at, updated_at
		 FROM friends WHERE profile_id = ?`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing friends of profile %s: %w", profileID, err)
	}
	defer rows.Close()

	friends := make([]model.Friend, 0)
	for rows.Next() {
		var f model.Friend
		if err := rows.Scan(
			&f.ID, &f.ProfileID, &f.Name, &f.Birthday,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning friend row: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating friends: %w", err)
	}

	return friends, nil
}

// Update saves name, birthday and — crucially for the merge — ownership.
// Reassigning a friend to another profile is just an Update with a new
// ProfileID.
func (r *FriendRepo) Update(ctx context.Context, friend *model.Friend) error {
	friend.UpdatedAt = time.Now()

	result, err := r.q.ExecContext(ctx,
		`UPDATE friends
		 SET profile_id = ?, name = ?, birthday = ?, updated_at = ?
		 WHERE id = ?`,
		friend.ProfileID,
		friend.Name,
		friend.Birthday,
		friend.UpdatedAt,
		friend.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating friend %s: %w", friend.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("friend", friend.ID)
	}

	return nil
}

// Delete removes a friend record. Same pattern as Update — RowsAffected
// detects "not found".
func (r *FriendRepo) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM friends WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting friend %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("friend", id)
	}

	return nil
}
