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

// compile-time check that *ProfileRepo implements repository.ProfileRepository
var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo persists profiles.
//
// NULL HANDLING:
// In the model, "no owner" is UserID == "" and "no chat attached" is
// ChatID == 0. In the database those must be real NULLs — the UNIQUE
// indexes on user_id and chat_id ignore NULLs, which is what allows many
// unlinked profiles to coexist while still guaranteeing that a SET value
// is held by at most one row. nullStr/nullInt do the mapping on the way
// in; sql.NullString/NullInt64 do it on the way out.
type ProfileRepo struct {
	q querier
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

// Create inserts a new profile.
//
// Every profile must be anchored to SOMETHING at creation — a web account
// or a chat identity — otherwise it could never be found again. That
// invariant is checked here, closest to the write.
func (r *ProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	if profile.UserID == "" && profile.ChatID == 0 {
		return apperror.ValidationFailed("profile",
			"a profile needs an owner or a chat identity at creation")
	}

	profile.ID = xid.New().String()
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, chat_id, link_code, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		profile.ID,
		nullStr(profile.UserID),
		nullInt(profile.ChatID),
		profile.LinkCode,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("profile", "chat identity or linking code already in use")
		}
		return fmt.Errorf("sqlite: inserting profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by internal ID.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.getOne(ctx, `WHERE id = ?`, id, id)
}

// GetByUserID retrieves the profile owned by the given web account.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	return r.getOne(ctx, `WHERE user_id = ?`, userID, userID)
}

// GetByChatID retrieves the profile holding the given chat identity.
// The UNIQUE index guarantees at most one row matches.
func (r *ProfileRepo) GetByChatID(ctx context.Context, chatID int64) (*model.Profile, error) {
	return r.getOne(ctx, `WHERE chat_id = ?`, chatID, fmt.Sprintf("chat:%d", chatID))
}

// GetByLinkCode retrieves the profile the given linking code resolves to.
func (r *ProfileRepo) GetByLinkCode(ctx context.Context, code string) (*model.Profile, error) {
	return r.getOne(ctx, `WHERE link_code = ?`, code, "code:"+code)
}

// Update saves the mutable fields: owner, chat identity and linking code.
//
// Attaching a chat identity that another profile already holds trips the
// UNIQUE index and surfaces as Conflict — inside a linking transaction
// that aborts and rolls back the whole merge, which is exactly the
// "fail cleanly rather than silently corrupt" behaviour we want under
// concurrent links.
func (r *ProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()

	result, err := r.q.ExecContext(ctx,
		`UPDATE profiles
		 SET user_id = ?, chat_id = ?, link_code = ?, updated_at = ?
		 WHERE id = ?`,
		nullStr(profile.UserID),
		nullInt(profile.ChatID),
		profile.LinkCode,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("profile", "chat identity or linking code already in use")
		}
		return fmt.Errorf("sqlite: updating profile %s: %w", profile.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", profile.ID)
	}

	return nil
}

// getOne runs a single-row profile query. The NULLable columns are scanned
// through sql.Null* and collapsed back to the model's zero values.
func (r *ProfileRepo) getOne(ctx context.Context, where string, arg any, key string) (*model.Profile, error) {
	var (
		p      model.Profile
		userID sql.NullString
		chatID sql.NullInt64
	)

	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, chat_id, link_code, created_at, updated_at
		 FROM profiles `+where,
		arg,
	).Scan(
		&p.ID,
		&userID,
		&chatID,
		&p.LinkCode,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", key)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", key, err)
	}

	p.UserID = userID.String
	p.ChatID = chatID.Int64
	return &p, nil
}
