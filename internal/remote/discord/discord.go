package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/mlgudi/chance-man-sub000/internal/event"
	"github.com/mlgudi/chance-man-sub000/internal/item"
)

const embedColorUnlock = 0x2ecc71

// Notifier publishes unlock notifications to a Discord channel through a
// webhook, so no bot token or gateway connection is needed.
type Notifier struct {
	webhookClient *webhookClient
	names         func(item.ID) string
}

func NewNotifier(webhookURL string, names func(item.ID) string) (*Notifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if names == nil {
		names = func(item.ID) string { return "" }
	}
	return &Notifier{
		webhookClient: newWebhookClient(webhookURL),
		names:         names,
	}, nil
}

// Handle publishes roll completions; every other event is ignored.
func (n *Notifier) Handle(ctx context.Context, e event.Event) error {
	evt, ok := e.(event.RollCompletedEvent)
	if !ok {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Item unlocked",
		Description: evt.Message(),
		Color:       embedColorUnlock,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Unlocked", Value: n.names(evt.Unlocked), Inline: true},
		},
	}
	if evt.Manual {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Trigger", Value: "Manual roll", Inline: true})
	} else {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Trigger", Value: n.names(evt.Trigger), Inline: true})
	}

	return n.webhookClient.SendEmbed(ctx, embed)
}
