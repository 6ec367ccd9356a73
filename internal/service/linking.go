package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avolkov/birthdaybook/internal/apperror"
	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/repository"
)

// LinkStatus is the outcome of a linking attempt.
//
// An unknown code is a NORMAL outcome, not an error — the user simply
// typed a code that doesn't resolve. Store failures, by contrast, come
// back as errors.
type LinkStatus int

const (
	// LinkStatusLinked — the chat identity now resolves to the target
	// profile (including the no-op case where it already did).
	LinkStatusLinked LinkStatus = iota
	// LinkStatusUnknownCode — the code matched no profile; nothing was
	// changed.
	LinkStatusUnknownCode
)

// LinkResult reports what a Link call did. Moved and Discarded count the
// friend records migrated from the shadow profile and the duplicates
// dropped — the bot uses them to phrase its reply.
type LinkResult struct {
	Status    LinkStatus
	Profile   *model.Profile
	Moved     int
	Discarded int
	// AlreadyLinked is set when the profile matched both the code and the
	// chat identity before the call — a no-op success, not an error, but
	// the bot words its reply differently.
	AlreadyLinked bool
}

// LinkingService binds chat identities to web profiles.
//
// This is the reconciling core of the whole application: a person may have
// accumulated a friend list under a bot-only shadow profile before ever
// registering on the web, and Link folds that shadow list into their real
// account without losing or duplicating anything.
type LinkingService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewLinkingService creates a LinkingService.
func NewLinkingService(store repository.Store, logger *slog.Logger) *LinkingService {
	return &LinkingService{
		store:  store,
		logger: logger,
	}
}

// Link resolves the profile the code points at, merges in any shadow
// profile currently holding the chat identity, and attaches the chat
// identity to the target.
//
// ALGORITHM (all of it inside ONE store transaction):
//  1. target := profile with this linking code; none → UnknownCode.
//  2. shadow := the OTHER profile (if any) holding this chat identity.
//  3. If shadow exists, merge: each of shadow's friends either moves to
//     target or, when target already has the identical (name, birthday)
//     entry, is deleted as a duplicate. Then shadow's chat identity is
//     cleared — the profile row itself survives, because it may carry a
//     web login of its own that we must not destroy.
//  4. target gets the chat identity and is saved.
//
// WHY ONE TRANSACTION?
// A crash after step 3 but before step 4 would leave friends migrated to a
// profile the chat can't reach — a state no reader may ever observe. The
// InTx unit rolls everything back on any failure, and a concurrent link
// touching the same profiles trips the chat_id unique index and aborts
// cleanly instead of corrupting ownership.
//
// If target already holds some OTHER chat identity, it is overwritten —
// last link wins. Warning the user about that is the front-end's call.
// A target already matching both code and chat identity short-circuits to
// a no-op success.
func (s *LinkingService) Link(ctx context.Context, code string, chatID int64) (*LinkResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.ValidationFailed("code", "linking code is required")
	}
	if chatID == 0 {
		return nil, apperror.ValidationFailed("chatId", "chat identity is required")
	}

	res := &LinkResult{}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		target, err := tx.Profiles().GetByLinkCode(ctx, code)
		if errors.Is(err, apperror.ErrNotFound) {
			res.Status = LinkStatusUnknownCode
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolving code: %w", err)
		}

		// Already fully linked: both code and chat identity match this
		// profile. Nothing to do — report success, mutate nothing.
		if target.ChatID == chatID {
			res.Status = LinkStatusLinked
			res.Profile = target
			res.AlreadyLinked = true
			return nil
		}

		shadow, err := tx.Profiles().GetByChatID(ctx, chatID)
		switch {
		case err == nil:
			// The chat identity currently belongs to another profile —
			// merge its friends into target, then detach it. Detaching
			// must happen BEFORE the attach below or the chat_id unique
			// index would reject two holders of the same value.
			moved, discarded, err := mergeFriends(ctx, tx, shadow.ID, target.ID)
			if err != nil {
				return err
			}
			res.Moved, res.Discarded = moved, discarded

			shadow.ChatID = 0
			if err := tx.Profiles().Update(ctx, shadow); err != nil {
				return fmt.Errorf("detaching shadow profile %s: %w", shadow.ID, err)
			}
		case errors.Is(err, apperror.ErrNotFound):
			// No shadow — straight attach, no friends touched.
		default:
			return fmt.Errorf("looking up shadow profile: %w", err)
		}

		target.ChatID = chatID
		if err := tx.Profiles().Update(ctx, target); err != nil {
			return fmt.Errorf("attaching chat to profile %s: %w", target.ID, err)
		}

		res.Status = LinkStatusLinked
		res.Profile = target
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/linking: %w", err)
	}

	if res.Status == LinkStatusLinked && res.Profile != nil {
		s.logger.Info("chat identity linked",
			slog.String("profileID", res.Profile.ID),
			slog.Int64("chatID", chatID),
			slog.Int("friendsMoved", res.Moved),
			slog.Int("duplicatesDiscarded", res.Discarded),
		)
	}

	return res, nil
}

// mergeFriends migrates every friend of fromID into toID, deleting the
// ones toID already has.
//
// DEDUP RULE: exact (name, birthday) equality, case-sensitive on name,
// year included. "Ann 1990-05-01" discards a second "Ann 1990-05-01" but
// migrates "ann 1990-05-01" untouched. The comparison set is the target's
// list as it stood BEFORE the merge — if the shadow list itself contains
// duplicates, both copies move, same as if the user had typed them twice
// on the web.
func mergeFriends(ctx context.Context, tx repository.Store, fromID, toID string) (moved, discarded int, err error) {
	incoming, err := tx.Friends().ListByProfile(ctx, fromID)
	if err != nil {
		return 0, 0, fmt.Errorf("listing friends of shadow %s: %w", fromID, err)
	}
	existing, err := tx.Friends().ListByProfile(ctx, toID)
	if err != nil {
		return 0, 0, fmt.Errorf("listing friends of target %s: %w", toID, err)
	}

	for i := range incoming {
		f := &incoming[i]

		duplicate := false
		for j := range existing {
			if f.SameEntry(&existing[j]) {
				duplicate = true
				break
			}
		}

		if duplicate {
			if err := tx.Friends().Delete(ctx, f.ID); err != nil {
				return moved, discarded, fmt.Errorf("discarding duplicate friend %s: %w", f.ID, err)
			}
			discarded++
			continue
		}

		f.ProfileID = toID
		if err := tx.Friends().Update(ctx, f); err != nil {
			return moved, discarded, fmt.Errorf("reassigning friend %s: %w", f.ID, err)
		}
		moved++
	}

	return moved, discarded, nil
}
