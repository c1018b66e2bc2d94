package keepalive

import (
	"context"
	"fmt"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/metrics"
	"github.com/bwmarrin/discordgo"
)

// DefaultAlertChannel is looked up by name when no channel ID is configured.
const DefaultAlertChannel = "lemniscate-alerts"

// messageSender is the part of discordgo.Session the alerter needs.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAlerter sends alerts to a Discord channel
type DiscordAlerter struct {
	session   *discordgo.Session
	sender    messageSender
	channelID string
	userID    string // Discord user ID for mentions (e.g., "<@123456789>")
	logger    *logging.Logger
}

// NewDiscordAlerter opens a bot session. When channelID is empty the channel
// named DefaultAlertChannel is searched for in every guild the bot is in.
func NewDiscordAlerter(token, channelID, userID string, logger *logging.Logger) (*DiscordAlerter, error) {
	if logger == nil {
		logger = logging.Default()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Open the session to access guilds
	err = session.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}

	if channelID == "" {
		channelID, err = findChannelByName(session, DefaultAlertChannel)
		if err != nil {
			if closeErr := session.Close(); closeErr != nil {
				logger.Error("failed to close Discord session", "error", closeErr.Error())
			}
			return nil, fmt.Errorf("failed to find channel %s: %w", DefaultAlertChannel, err)
		}
	}

	logger.Info("Discord alerter initialized", "channelID", channelID, "userID", userID)

	return &DiscordAlerter{
		session:   session,
		sender:    session,
		channelID: channelID,
		userID:    userID,
		logger:    logger,
	}, nil
}

// findChannelByName searches all guilds for a channel with the given name
func findChannelByName(session *discordgo.Session, channelName string) (string, error) {
	for _, guild := range session.State.Guilds {
		channels, err := session.GuildChannels(guild.ID)
		if err != nil {
			continue
		}

		for _, channel := range channels {
			if channel.Name == channelName {
				return channel.ID, nil
			}
		}
	}

	return "", fmt.Errorf("channel %s not found in any guild", channelName)
}

func formatAlert(userID, serviceName, message string) string {
	if userID != "" {
		return fmt.Sprintf("<@%s> **Alert (%s):** %s", userID, serviceName, message)
	}
	return fmt.Sprintf("**Alert (%s):** %s", serviceName, message)
}

// SendAlert sends an alert message to the configured Discord channel
func (da *DiscordAlerter) SendAlert(ctx context.Context, serviceName string, message string) error {
	_, err := da.sender.ChannelMessageSend(da.channelID, formatAlert(da.userID, serviceName, message),
		discordgo.WithContext(ctx))
	if err != nil {
		da.logger.Error("failed to send Discord alert",
			"error", err.Error(),
			"service", serviceName,
			"channel_id", da.channelID)
		return fmt.Errorf("failed to send Discord message: %w", err)
	}

	metrics.AlertsSentCount.Add(1)
	da.logger.Info("Discord alert sent",
		"service", serviceName,
		"channel_id", da.channelID)

	return nil
}

// Close closes the Discord session
func (da *DiscordAlerter) Close() error {
	if da.session == nil {
		return nil
	}
	return da.session.Close()
}
