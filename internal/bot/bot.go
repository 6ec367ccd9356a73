// Package bot is the Telegram front-end: a long-polling command loop that
// drives the same services as the web API.
//
// The bot never touches the repositories directly. Every command resolves
// the sender's profile through ProfileService (creating a shadow profile on
// first contact) and then talks to the friend ledger or the linking engine
// — exactly the same call paths the HTTP handlers use.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avolkov/birthdaybook/internal/model"
	"github.com/avolkov/birthdaybook/internal/service"
)

// Bot wraps the Telegram API client and the services it dispatches to.
type Bot struct {
	api      *tgbotapi.BotAPI
	profiles *service.ProfileService
	linking  *service.LinkingService
	friends  *service.FriendService
	dialogs  *dialogStore
	logger   *slog.Logger
}

// New creates a Bot and verifies the token against the Telegram API.
func New(
	token string,
	profiles *service.ProfileService,
	linking *service.LinkingService,
	friends *service.FriendService,
	logger *slog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot: connecting to Telegram: %w", err)
	}

	return &Bot{
		api:      api,
		profiles: profiles,
		linking:  linking,
		friends:  friends,
		dialogs:  newDialogStore(),
		logger:   logger,
	}, nil
}

// Run polls for updates until ctx is cancelled. Each message is handled
// synchronously — this is a low-traffic personal tool, and in-order
// handling is what makes the two-step /add dialog behave.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", slog.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage dispatches one incoming message: commands first, then any
// in-flight /add dialog, then a shrug.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.cmdStart(ctx, msg)
		case "help":
			b.reply(msg, lexicon["help"])
		case "add":
			b.dialogs.set(userID, &dialog{step: stepAwaitingName})
			b.reply(msg, lexicon["ask_name"])
		case "cancel":
			if b.dialogs.get(userID) != nil {
				b.dialogs.clear(userID)
				b.reply(msg, lexicon["add_cancelled"])
			} else {
				b.reply(msg, lexicon["nothing_to_cancel"])
			}
		case "friends":
			b.cmdFriends(ctx, msg)
		case "today":
			b.cmdToday(ctx, msg)
		default:
			b.reply(msg, lexicon["unknown_command"])
		}
		return
	}

	if d := b.dialogs.get(userID); d != nil {
		b.continueAddDialog(ctx, msg, d)
		return
	}

	b.reply(msg, lexicon["unknown_command"])
}

// cmdStart handles both the plain greeting and the deep-link form
// "/start <code>" that carries a linking code from the account page.
func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		b.reply(msg, lexicon["start"])
		return
	}

	result, err := b.linking.Link(ctx, code, msg.From.ID)
	if err != nil {
		b.logger.Error("link failed",
			slog.Int64("chatID", msg.From.ID),
			slog.String("error", err.Error()),
		)
		b.reply(msg, lexicon["something_went_wrong"])
		return
	}

	switch {
	case result.Status == service.LinkStatusUnknownCode:
		b.reply(msg, lexicon["unknown_code"])
	case result.AlreadyLinked:
		b.reply(msg, lexicon["already_linked"])
	case result.Moved > 0 || result.Discarded > 0:
		b.reply(msg, fmt.Sprintf(lexicon["linked_merged"], result.Moved, result.Discarded))
	default:
		b.reply(msg, lexicon["linked"])
	}
}

// continueAddDialog advances the two-step add-friend conversation.
func (b *Bot) continueAddDialog(ctx context.Context, msg *tgbotapi.Message, d *dialog) {
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	switch d.step {
	case stepAwaitingName:
		d.friendName = text
		d.step = stepAwaitingBirthday
		b.dialogs.set(userID, d)
		b.reply(msg, lexicon["ask_birthday"])

	case stepAwaitingBirthday:
		birthday, err := model.ParseDate(text)
		if err != nil {
			b.reply(msg, lexicon["bad_birthday"])
			return // stay in this step, let them retry
		}

		profile, err := b.profiles.ResolveByChat(ctx, userID)
		if err != nil {
			b.fail(msg, "resolving profile", err)
			return
		}

		friend, err := b.friends.Add(ctx, profile.ID, d.friendName, birthday)
		if err != nil {
			b.fail(msg, "adding friend", err)
			return
		}

		b.dialogs.clear(userID)
		b.reply(msg, fmt.Sprintf(lexicon["friend_added"], friend.Name, friend.Birthday))
	}
}

// cmdFriends lists all friends, one "Name — DD.MM" line each.
func (b *Bot) cmdFriends(ctx context.Context, msg *tgbotapi.Message) {
	profile, err := b.profiles.ResolveByChat(ctx, msg.From.ID)
	if err != nil {
		b.fail(msg, "resolving profile", err)
		return
	}

	friends, err := b.friends.List(ctx, profile.ID)
	if err != nil {
		b.fail(msg, "listing friends", err)
		return
	}

	if len(friends) == 0 {
		b.reply(msg, lexicon["no_friends"])
		return
	}

	var sb strings.Builder
	sb.WriteString(lexicon["list_friends"])
	for _, f := range friends {
		fmt.Fprintf(&sb, "%s — %02d.%02d\n", f.Name, f.Birthday.Day, int(f.Birthday.Month))
	}
	b.reply(msg, sb.String())
}

// cmdToday lists today's birthdays.
func (b *Bot) cmdToday(ctx context.Context, msg *tgbotapi.Message) {
	profile, err := b.profiles.ResolveByChat(ctx, msg.From.ID)
	if err != nil {
		b.fail(msg, "resolving profile", err)
		return
	}

	birthdays, err := b.friends.Today(ctx, profile.ID)
	if err != nil {
		b.fail(msg, "listing today's birthdays", err)
		return
	}

	if len(birthdays) == 0 {
		b.reply(msg, lexicon["no_birthdays_today"])
		return
	}

	var sb strings.Builder
	sb.WriteString(lexicon["birthdays_today"])
	for _, f := range birthdays {
		fmt.Fprintf(&sb, "%s — %s\n", f.Name, f.Birthday)
	}
	b.reply(msg, sb.String())
}

// reply sends a plain text message back to the chat the message came from.
func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send reply",
			slog.Int64("chatID", msg.Chat.ID),
			slog.String("error", err.Error()),
		)
	}
}

// fail logs the error and tells the user something went wrong, without
// leaking internals into the chat.
func (b *Bot) fail(msg *tgbotapi.Message, action string, err error) {
	b.logger.Error("command failed",
		slog.String("action", action),
		slog.Int64("chatID", msg.From.ID),
		slog.String("error", err.Error()),
	)
	b.reply(msg, lexicon["something_went_wrong"])
}
