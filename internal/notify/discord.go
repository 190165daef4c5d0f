package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/user/wifipilot/internal/util"
)

const (
	colorSwitch  = 3066993  // green
	colorWarning = 15105570 // orange
)

// embedSender is the part of a discordgo session the notifier uses.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts events as embeds to a Discord channel. It is
// disabled when the token or channel is empty.
type DiscordNotifier struct {
	session   embedSender
	channelID string
	enabled   bool
}

// NewDiscordNotifier creates a notifier. A missing token or channel yields a
// disabled notifier rather than an error.
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	if token == "" {
		util.Debug("Discord token not provided, Discord notifications disabled")
		return &DiscordNotifier{}, nil
	}
	if channelID == "" {
		util.Debug("Discord channel ID not provided, Discord notifications disabled")
		return &DiscordNotifier{}, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
		enabled:   true,
	}, nil
}

// Enabled reports whether the notifier will send anything.
func (d *DiscordNotifier) Enabled() bool {
	return d.enabled
}

// Name returns "discord".
func (d *DiscordNotifier) Name() string { return "discord" }

// Notify sends ev as an embed.
func (d *DiscordNotifier) Notify(ctx context.Context, ev Event) error {
	if !d.enabled {
		return fmt.Errorf("Discord notifier not enabled")
	}

	_, err := d.session.ChannelMessageSendEmbed(d.channelID, buildEmbed(ev), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}
	return nil
}

func buildEmbed(ev Event) *discordgo.MessageEmbed {
	color := colorSwitch
	if ev.Warning {
		color = colorWarning
	}

	var fields []*discordgo.MessageEmbedField
	if c := ev.Current; c != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Current",
			Value:  fmt.Sprintf("%s (%d dBm)", c.SSID, c.RSSI),
			Inline: true,
		})
	}
	if c := ev.Candidate; c != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Candidate",
			Value:  fmt.Sprintf("%s (%d dBm, %s)", c.SSID, c.SignalLevel, c.Band()),
			Inline: true,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: ev.Message,
		Color:       color,
		Fields:      fields,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if ev.DecisionID != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Decision " + ev.DecisionID}
	}
	return embed
}
