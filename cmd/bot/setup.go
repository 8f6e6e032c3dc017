package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
	"github.com/Jacobbrewer1/supportbot/pkg/prompt"
)

const (
	// SetupCmdName is the command for setting up the support system.
	SetupCmdName = "setupsupport"

	// StaffRoleName is the name of the role that can claim tickets.
	StaffRoleName = "Support Staff"

	// supportCategoryName is the name of the category that holds the support channels and tickets.
	supportCategoryName = "┗⎯⎯⎯⎯⎯⎯|💚|SUPPORT|💚|⎯⎯⎯⎯⎯⎯┑"

	// settingsChannelName is the name of the staff only settings channel.
	settingsChannelName = "support-settings"

	// defaultSupportChannelName is used when no usable name is given.
	defaultSupportChannelName = "support"

	// maxChannelName is Discord's limit on channel names.
	maxChannelName = 100
)

const (
	msgNotAdministrator  = "You must be an administrator to use this command"
	msgCreatedStaffRole  = "Created Support Staff role!"
	msgAskChannelName    = "What would you like to name the support channel? (Type your response or wait 30 seconds for default 'support')"
	msgAlreadySetUp      = "A support system is already set up! Would you like to delete it and create a new one?"
	msgSetupTimedOut     = "Setup timed out! No changes were made."
	msgSetupCancelled    = "Setup cancelled! Existing support system remains unchanged."
	msgSetupReplacing    = "Removing the existing support system..."
	msgGuildOnlyCommand  = "This command can only be used in a server."
	msgSetupCompleteTmpl = "Support system has been set up in %s!"
)

var (
	// adminPermissions is the default permission required to see the setup command.
	adminPermissions int64 = discordgo.PermissionAdministrator

	// setupCmd is the command for setting up the support system.
	setupCmd = &discordgo.ApplicationCommand{
		Name:                     SetupCmdName,
		Type:                     discordgo.ChatApplicationCommand,
		Description:              "Set up the support ticket system",
		DefaultMemberPermissions: &adminPermissions,
	}
)

// replier sends the messages of a command back to where it was invoked.
type replier interface {
	reply(content string, components []discordgo.MessageComponent) error
}

// interactionReplier responds to a slash command, then follows up.
type interactionReplier struct {
	a         IApp
	i         *discordgo.Interaction
	responded bool
}

func (r *interactionReplier) reply(content string, components []discordgo.MessageComponent) error {
	if !r.responded {
		r.responded = true
		return r.a.Platform().Respond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Components: components,
			},
		})
	}

	_, err := r.a.Platform().Followup(r.i, &discordgo.WebhookParams{
		Content:    content,
		Components: components,
	})
	return err
}

// channelReplier sends messages to the channel a text command was used in.
type channelReplier struct {
	a         IApp
	channelID string
}

func (r *channelReplier) reply(content string, components []discordgo.MessageComponent) error {
	_, err := r.a.Platform().SendMessage(r.channelID, &discordgo.MessageSend{
		Content:    content,
		Components: components,
	})
	return err
}

// setupRequest is an invocation of the setup command.
type setupRequest struct {
	guildID     string
	channelID   string
	user        *discordgo.User
	permissions int64
	replier     replier
}

func setupSlashCommand(a IApp, i *discordgo.InteractionCreate) error {
	member := interactionMember(i)
	if member == nil {
		return respondEphemeral(a, i, msgGuildOnlyCommand)
	}

	return runSetup(a, &setupRequest{
		guildID:     i.GuildID,
		channelID:   i.ChannelID,
		user:        discord.InteractionUser(i.Interaction),
		permissions: member.Permissions,
		replier:     &interactionReplier{a: a, i: i.Interaction},
	})
}

func setupTextCommand(a IApp, m *discordgo.MessageCreate) error {
	if m.GuildID == "" {
		return nil
	}

	perms, err := a.Platform().MemberPermissions(m.ChannelID, m.Author.ID)
	if err != nil {
		return fmt.Errorf("error getting permissions: %w", err)
	}

	return runSetup(a, &setupRequest{
		guildID:     m.GuildID,
		channelID:   m.ChannelID,
		user:        m.Author,
		permissions: perms,
		replier:     &channelReplier{a: a, channelID: m.ChannelID},
	})
}

// runSetup creates, or replaces, the support system of a guild.
func runSetup(a IApp, req *setupRequest) error {
	ctx := context.Background()
	l := a.Log().With(slog.String(logging.KeyGuildID, req.guildID), slog.String(logging.KeyUserID, req.user.ID))

	if !discord.IsAdministrator(req.permissions) {
		return req.replier.reply(msgNotAdministrator, nil)
	}

	staffRole, err := ensureStaffRole(a, req)
	if err != nil {
		return err
	}

	channelName, err := askChannelName(a, req)
	if err != nil {
		return err
	}

	existing, err := a.Store().GetGuild(req.guildID)
	switch {
	case errors.Is(err, dataaccess.ErrGuildNotFound):
	case err != nil:
		return fmt.Errorf("error getting guild: %w", err)
	default:
		replace, err := confirmReplace(a, req)
		if err != nil || !replace {
			return err
		}
		teardown(a, l, req.guildID, existing)
	}

	category, err := a.Platform().CreateChannel(req.guildID, discordgo.GuildChannelCreateData{
		Name: supportCategoryName,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return fmt.Errorf("error creating support category: %w", err)
	}

	botID := a.Platform().BotUserID()

	supportChannel, err := a.Platform().CreateChannel(req.guildID, discordgo.GuildChannelCreateData{
		Name:     channelName,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: category.ID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			// Everyone can read the panel but not post.
			{
				ID:    req.guildID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: discordgo.PermissionViewChannel,
				Deny:  discordgo.PermissionSendMessages | discordgo.PermissionAddReactions,
			},
			{
				ID:    botID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAddReactions,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error creating support channel: %w", err)
	}

	if err := a.Store().AddGuild(ctx, req.guildID, category.ID, supportChannel.ID); err != nil {
		return fmt.Errorf("error saving guild: %w", err)
	}

	if _, err := a.Platform().SendMessage(supportChannel.ID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ticketPanelEmbed(nil)},
		Components: ticketPanelComponents(nil),
	}); err != nil {
		return fmt.Errorf("error posting ticket panel: %w", err)
	}

	if err := setupSettingsChannel(a, req.guildID, category.ID, botID, staffRole); err != nil {
		return err
	}

	l.Info("Support system set up", slog.String(logging.KeyChannelID, supportChannel.ID))
	return req.replier.reply(fmt.Sprintf(msgSetupCompleteTmpl, discord.ChannelMention(supportChannel.ID)), nil)
}

// ensureStaffRole finds the staff role, creating it if it does not exist.
func ensureStaffRole(a IApp, req *setupRequest) (*discordgo.Role, error) {
	roles, err := a.Platform().GuildRoles(req.guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting roles: %w", err)
	}

	if role := discord.FindRoleByName(roles, StaffRoleName); role != nil {
		return role, nil
	}

	role, err := a.Platform().CreateRole(req.guildID, StaffRoleName, discordgo.PermissionAll)
	if err != nil {
		return nil, fmt.Errorf("error creating staff role: %w", err)
	}

	if err := req.replier.reply(msgCreatedStaffRole, nil); err != nil {
		return nil, err
	}
	return role, nil
}

// askChannelName asks the invoker for the support channel name. No answer gives the default name.
func askChannelName(a IApp, req *setupRequest) (string, error) {
	wait := a.Prompts().ExpectMessage(req.channelID, req.user.ID)
	defer wait.Cancel()

	if err := req.replier.reply(msgAskChannelName, nil); err != nil {
		return "", err
	}

	m, err := wait.Wait(context.Background(), a.Timings().PromptTimeout)
	if errors.Is(err, prompt.ErrTimeout) {
		return defaultSupportChannelName, nil
	} else if err != nil {
		return "", fmt.Errorf("error waiting for channel name: %w", err)
	}
	return sanitizeChannelName(m.Content), nil
}

// confirmReplace asks the invoker whether the existing support system should be replaced.
func confirmReplace(a IApp, req *setupRequest) (bool, error) {
	conf, err := a.Prompts().ExpectConfirmation(req.user.ID)
	if err != nil {
		return false, err
	}
	defer conf.Cancel()

	if err := req.replier.reply(msgAlreadySetUp, conf.Components()); err != nil {
		return false, err
	}

	choice, err := conf.Wait(context.Background(), a.Timings().PromptTimeout)
	if errors.Is(err, prompt.ErrTimeout) {
		return false, req.replier.reply(msgSetupTimedOut, nil)
	} else if err != nil {
		return false, fmt.Errorf("error waiting for confirmation: %w", err)
	}

	if !choice.Confirmed {
		return false, respondResolved(a, choice.Interaction, msgSetupCancelled)
	}
	return true, respondResolved(a, choice.Interaction, msgSetupReplacing)
}

// teardown deletes the channels of the existing support category, then the category. Failures are logged and
// otherwise ignored.
func teardown(a IApp, l *slog.Logger, guildID string, existing *entities.GuildConfig) {
	categoryID := string(existing.CategoryID)

	channels, err := a.Platform().GuildChannels(guildID)
	if err != nil {
		l.Warn("Error listing channels of the existing support system", slog.String(logging.KeyError, err.Error()))
	}

	for _, c := range channels {
		if c.ParentID != categoryID || categoryID == "" {
			continue
		}
		if err := a.Platform().DeleteChannel(c.ID); err != nil {
			l.Warn("Error deleting support channel",
				slog.String(logging.KeyChannelID, c.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	if categoryID == "" {
		return
	}
	if err := a.Platform().DeleteChannel(categoryID); err != nil {
		l.Warn("Error deleting support category",
			slog.String(logging.KeyChannelID, categoryID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// setupSettingsChannel creates the staff only settings channel, posts the settings panel and records the channel.
func setupSettingsChannel(a IApp, guildID, categoryID, botID string, staffRole *discordgo.Role) error {
	ctx := context.Background()

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    botID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}
	if staffRole != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    staffRole.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	settingsChannel, err := a.Platform().CreateChannel(guildID, discordgo.GuildChannelCreateData{
		Name:                 settingsChannelName,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return fmt.Errorf("error creating settings channel: %w", err)
	}

	g, err := a.Store().GetGuild(guildID)
	if err != nil {
		return fmt.Errorf("error getting guild: %w", err)
	}

	if _, err := a.Platform().SendMessage(settingsChannel.ID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{settingsPanelEmbed(g)},
		Components: settingsPanelComponents(g),
	}); err != nil {
		return fmt.Errorf("error posting settings panel: %w", err)
	}

	if err := a.Store().UpdateSettings(ctx, guildID, entities.SettingsUpdate{
		SettingsChannelID: &settingsChannel.ID,
	}); err != nil {
		return fmt.Errorf("error saving settings channel: %w", err)
	}
	return nil
}

// sanitizeChannelName lowercases the name, turns spaces into hyphens and keeps only letters, digits and hyphens.
func sanitizeChannelName(name string) string {
	name = strings.ReplaceAll(strings.ToLower(name), " ", "-")

	var b strings.Builder
	n := 0
	for _, r := range name {
		if n == maxChannelName {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			n++
		}
	}

	if b.Len() == 0 {
		return defaultSupportChannelName
	}
	return b.String()
}
