package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Jacobbrewer1/discordgo"
)

// Platform is the part of Discord the support workflow talks to.
type Platform interface {
	// BotUserID is the ID of the bot's own user.
	BotUserID() string

	// Respond sends the initial response to an interaction.
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error

	// Followup sends a follow-up message to an interaction that has already been responded to.
	Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error)

	// SendMessage sends a message to a channel.
	SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// DeleteMessage deletes a message.
	DeleteMessage(channelID, messageID string) error

	// Channel gets a channel. A channel that no longer exists returns an error wrapping ErrNotFound.
	Channel(channelID string) (*discordgo.Channel, error)

	// GuildChannels lists the channels of a guild.
	GuildChannels(guildID string) ([]*discordgo.Channel, error)

	// CreateChannel creates a channel or category in a guild.
	CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// DeleteChannel deletes a channel or category.
	DeleteChannel(channelID string) error

	// GuildRoles lists the roles of a guild.
	GuildRoles(guildID string) ([]*discordgo.Role, error)

	// CreateRole creates a role with the given permissions.
	CreateRole(guildID, name string, permissions int64) (*discordgo.Role, error)

	// MemberPermissions gets the permissions a user has in a channel.
	MemberPermissions(channelID, userID string) (int64, error)
}

// ErrNotFound is returned when the requested Discord object does not exist.
var ErrNotFound = errors.New("not found")

type sessionPlatform struct {
	s *discordgo.Session
}

// NewPlatform wraps a discord session.
func NewPlatform(s *discordgo.Session) Platform {
	return &sessionPlatform{
		s: s,
	}
}

func (p *sessionPlatform) BotUserID() string {
	if p.s.State == nil || p.s.State.User == nil {
		return ""
	}
	return p.s.State.User.ID
}

func (p *sessionPlatform) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	if err := p.s.InteractionRespond(i, resp); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

func (p *sessionPlatform) Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	msg, err := p.s.FollowupMessageCreate(i, true, params)
	if err != nil {
		return nil, fmt.Errorf("error sending followup message: %w", err)
	}
	return msg, nil
}

func (p *sessionPlatform) SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	m, err := p.s.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	return m, nil
}

func (p *sessionPlatform) DeleteMessage(channelID, messageID string) error {
	if err := p.s.ChannelMessageDelete(channelID, messageID); err != nil {
		return fmt.Errorf("error deleting message: %w", translate(err))
	}
	return nil
}

func (p *sessionPlatform) Channel(channelID string) (*discordgo.Channel, error) {
	c, err := p.s.Channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("error getting channel %s: %w", channelID, translate(err))
	}
	return c, nil
}

func (p *sessionPlatform) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	channels, err := p.s.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild channels: %w", err)
	}
	return channels, nil
}

func (p *sessionPlatform) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	c, err := p.s.GuildChannelCreateComplex(guildID, data)
	if err != nil {
		return nil, fmt.Errorf("error creating channel %s: %w", data.Name, err)
	}
	return c, nil
}

func (p *sessionPlatform) DeleteChannel(channelID string) error {
	if _, err := p.s.ChannelDelete(channelID); err != nil {
		return fmt.Errorf("error deleting channel %s: %w", channelID, translate(err))
	}
	return nil
}

func (p *sessionPlatform) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	roles, err := p.s.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild roles: %w", err)
	}
	return roles, nil
}

func (p *sessionPlatform) CreateRole(guildID, name string, permissions int64) (*discordgo.Role, error) {
	role, err := p.s.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Permissions: &permissions,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating role %s: %w", name, err)
	}
	return role, nil
}

func (p *sessionPlatform) MemberPermissions(channelID, userID string) (int64, error) {
	perms, err := p.s.UserChannelPermissions(userID, channelID)
	if err != nil {
		return 0, fmt.Errorf("error getting member permissions: %w", err)
	}
	return perms, nil
}

// translate maps "unknown object" REST errors onto ErrNotFound.
func translate(err error) error {
	er := new(discordgo.RESTError)
	if !errors.As(err, &er) {
		return err
	}

	if er.Response != nil && er.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if er.Message != nil && (er.Message.Code == discordgo.ErrCodeUnknownChannel || er.Message.Code == discordgo.ErrCodeUnknownMessage) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
