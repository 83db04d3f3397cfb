package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mlgudi/chance-man-sub000/internal/event"
	"github.com/mlgudi/chance-man-sub000/internal/session"
)

type Bot struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	status func() session.Status
	logger *slog.Logger
}

// Start polls for commands until the context is canceled. The only commands
// are "status" and "history".
func (b *Bot) Start(ctx context.Context) error {
	offset, err := b.getLatestOffset()
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 5
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			for range updates {
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(update.Message.Text)) {
			case "status":
				b.send(b.formatStatus())
			case "history":
				b.send(b.formatHistory())
			}
		}
	}
}

// Handle publishes roll completions to the configured chat.
func (b *Bot) Handle(_ context.Context, e event.Event) error {
	evt, ok := e.(event.RollCompletedEvent)
	if !ok {
		return nil
	}
	b.send(evt.Message())
	return nil
}

func (b *Bot) send(text string) {
	if _, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Error("Failed to send Telegram message", "error", err)
	}
}

func (b *Bot) formatStatus() string {
	st := b.status()
	if st.Profile == "" {
		return "No active profile"
	}
	return fmt.Sprintf("Profile %s: %d unlocked, %d rolled, %d eligible, %d queued",
		st.Profile, st.Unlocked, st.Rolled, st.Eligible, st.QueueLen)
}

func (b *Bot) formatHistory() string {
	st := b.status()
	if len(st.History) == 0 {
		return "No rolls yet"
	}
	limit := len(st.History)
	if limit > 10 {
		limit = 10
	}
	var sb strings.Builder
	for _, entry := range st.History[:limit] {
		if entry.Manual {
			fmt.Fprintf(&sb, "%s (manual)\n", entry.UnlockedName)
		} else {
			fmt.Fprintf(&sb, "%s (from %s)\n", entry.UnlockedName, entry.TriggerName)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) getLatestOffset() (int, error) {
	upds, err := b.bot.GetUpdates(tgbotapi.NewUpdate(-1))
	if err != nil {
		return 0, err
	}
	offset := 0
	if len(upds) > 0 {
		offset = upds[0].UpdateID + 1
	}
	return offset, nil
}
