package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
)

const (
	msgSupportDisabled    = "Support system is currently disabled."
	msgTicketLimitTmpl    = "Maximum ticket limit (%d) reached. Please try again later."
	msgPickCategory       = "Please choose a subject from the dropdown menu first."
	msgTicketCreatedTmpl  = "Created ticket channel: %s"
	msgOnlyStaffCanClaim  = "Only Support Staff can claim tickets!"
	msgAlreadyClaimedTmpl = "This ticket has already been claimed by %s."
	msgCannotCloseTicket  = "You cannot close this ticket!"
	msgClosingTicketTmpl  = "Closing ticket in %d seconds..."
	ticketIDAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ticketIDLength        = 6
)

// selectCategoryHandler shows the picked category on the ticket panel and enables its create button.
func selectCategoryHandler(a IApp, i *discordgo.InteractionCreate) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return respondUpdate(a, i.Interaction, []*discordgo.MessageEmbed{ticketPanelEmbed(nil)}, ticketPanelComponents(nil))
	}

	category, ok := entities.CategoryByLabel(values[0])
	if !ok {
		return fmt.Errorf("unknown support category %q", values[0])
	}

	return respondUpdate(a, i.Interaction, []*discordgo.MessageEmbed{ticketPanelEmbed(&category)}, ticketPanelComponents(&category))
}

// createTicketHandler opens a private ticket channel for the member in the category carried by the button.
func createTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	member := interactionMember(i)
	if member == nil {
		return respondEphemeral(a, i, msgGuildOnlyCommand)
	}
	user := discord.InteractionUser(i.Interaction)

	_, slug, _ := strings.Cut(i.MessageComponentData().CustomID, ":")
	category, ok := entities.CategoryBySlug(slug)
	if !ok {
		return respondEphemeral(a, i, msgPickCategory)
	}

	g, err := a.Store().GetGuild(i.GuildID)
	if errors.Is(err, dataaccess.ErrGuildNotFound) {
		return respondEphemeral(a, i, msgNotSetUp)
	} else if err != nil {
		return fmt.Errorf("error getting guild: %w", err)
	}

	if !g.SupportEnabled {
		return respondEphemeral(a, i, msgSupportDisabled)
	} else if g.AtCapacity() {
		return respondEphemeral(a, i, fmt.Sprintf(msgTicketLimitTmpl, g.MaxTickets))
	}

	ticketID, err := generateTicketID()
	if err != nil {
		return err
	}

	roles, err := a.Platform().GuildRoles(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting roles: %w", err)
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   i.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    user.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
		{
			ID:    a.Platform().BotUserID(),
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}
	if staff := discord.FindRoleByName(roles, StaffRoleName); staff != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    staff.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	channel, err := a.Platform().CreateChannel(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 ticketChannelName(category, user.Username, ticketID),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("%s ticket opened by %s", category.Label, user.Username),
		ParentID:             string(g.CategoryID),
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return fmt.Errorf("error creating ticket channel: %w", err)
	}

	l := a.Log().With(
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyChannelID, channel.ID),
		slog.String(logging.KeyUserID, user.ID),
	)

	if err := a.Store().AddTicket(ctx, i.GuildID, channel.ID, user.ID, category.Label); err != nil {
		if delErr := a.Platform().DeleteChannel(channel.ID); delErr != nil {
			l.Warn("Error deleting unsaved ticket channel", slog.String(logging.KeyError, delErr.Error()))
		}
		return fmt.Errorf("error saving ticket: %w", err)
	}

	monitoring.TicketsOpened.WithLabelValues(category.Slug()).Inc()
	l.Info("Ticket created", slog.String("ticket_id", ticketID), slog.String("category", category.Label))

	if err := respondEphemeral(a, i, fmt.Sprintf(msgTicketCreatedTmpl, discord.ChannelMention(channel.ID))); err != nil {
		return err
	}

	if _, err := a.Platform().SendMessage(channel.ID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ticketManageEmbed(ticketID, user.ID)},
		Components: ticketManageComponents(""),
	}); err != nil {
		return fmt.Errorf("error posting ticket panel: %w", err)
	}

	g, err = a.Store().GetGuild(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild: %w", err)
	}
	if record, ok := g.ActiveTickets[channel.ID]; ok {
		if _, err := a.Platform().SendMessage(channel.ID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{ticketInfoEmbed(ticketID, category, user, record)},
		}); err != nil {
			return fmt.Errorf("error posting ticket information: %w", err)
		}
	}
	return nil
}

// claimTicketHandler records the staff member that takes the ticket and shows it on the ticket panel.
func claimTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	member := interactionMember(i)
	if member == nil {
		return respondEphemeral(a, i, msgGuildOnlyCommand)
	}
	user := discord.InteractionUser(i.Interaction)

	ticket, err := activeTicket(a, i)
	if err != nil || ticket == nil {
		return err
	}

	roles, err := a.Platform().GuildRoles(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting roles: %w", err)
	}

	staff := discord.FindRoleByName(roles, StaffRoleName)
	if staff == nil || !discord.HasRole(member, staff.ID) {
		return respondEphemeral(a, i, msgOnlyStaffCanClaim)
	}

	if ticket.IsClaimed() {
		return respondEphemeral(a, i, fmt.Sprintf(msgAlreadyClaimedTmpl, discord.UserMention(string(*ticket.ClaimedBy))))
	}

	err = a.Store().ClaimTicket(ctx, i.GuildID, i.ChannelID, user.ID)
	if errors.Is(err, dataaccess.ErrTicketNotFound) {
		return respondEphemeral(a, i, msgNotATicket)
	} else if err != nil {
		return fmt.Errorf("error claiming ticket: %w", err)
	}

	monitoring.TicketsClaimed.Inc()
	a.Log().Info("Ticket claimed",
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyChannelID, i.ChannelID),
		slog.String(logging.KeyUserID, user.ID),
	)

	var embeds []*discordgo.MessageEmbed
	if i.Message != nil {
		embeds = i.Message.Embeds
	}
	if err := respondUpdate(a, i.Interaction, embeds, ticketManageComponents(user.Username)); err != nil {
		return err
	}

	_, err = a.Platform().Followup(i.Interaction, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Ticket Claimed",
				Description: fmt.Sprintf("This ticket has been claimed by %s", discord.UserMention(user.ID)),
				Color:       colourGreen,
			},
		},
	})
	return err
}

// closeTicketHandler removes the ticket and deletes its channel after the close delay. Administrators and the member
// that opened the ticket can close it.
func closeTicketHandler(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	member := interactionMember(i)
	if member == nil {
		return respondEphemeral(a, i, msgGuildOnlyCommand)
	}
	user := discord.InteractionUser(i.Interaction)

	ticket, err := activeTicket(a, i)
	if err != nil || ticket == nil {
		return err
	}

	if !discord.IsAdministrator(member.Permissions) && string(ticket.UserID) != user.ID {
		return respondEphemeral(a, i, msgCannotCloseTicket)
	}

	if err := a.Store().RemoveTicket(ctx, i.GuildID, i.ChannelID); err != nil {
		return fmt.Errorf("error removing ticket: %w", err)
	}

	monitoring.TicketsClosed.WithLabelValues("closed").Inc()
	a.Log().Info("Ticket closed",
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyChannelID, i.ChannelID),
		slog.String(logging.KeyUserID, user.ID),
	)

	delay := a.Timings().CloseDelay
	if err := respondMessage(a, i.Interaction, fmt.Sprintf(msgClosingTicketTmpl, int(delay/time.Second))); err != nil {
		return err
	}

	time.Sleep(delay)

	if err := a.Platform().DeleteChannel(i.ChannelID); err != nil && !errors.Is(err, discord.ErrNotFound) {
		return fmt.Errorf("error deleting ticket channel: %w", err)
	}
	return nil
}

// activeTicket gets the ticket of the interaction's channel. When the channel is not an active ticket the user is
// told so and the ticket is nil.
func activeTicket(a IApp, i *discordgo.InteractionCreate) (*entities.TicketRecord, error) {
	g, err := a.Store().GetGuild(i.GuildID)
	if errors.Is(err, dataaccess.ErrGuildNotFound) {
		return nil, respondEphemeral(a, i, msgNotATicket)
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild: %w", err)
	}

	ticket, ok := g.ActiveTickets[i.ChannelID]
	if !ok {
		return nil, respondEphemeral(a, i, msgNotATicket)
	}
	return ticket, nil
}

// ticketChannelName is the name of a ticket channel, e.g. "ticket-discord-support-alice-1A2B3C".
func ticketChannelName(category entities.SupportCategory, username, ticketID string) string {
	return fmt.Sprintf("ticket-%s-%s-%s", category.Slug(), username, ticketID)
}

// generateTicketID creates a random ticket ID. Collisions with open tickets are not checked.
func generateTicketID() (string, error) {
	size := big.NewInt(int64(len(ticketIDAlphabet)))

	b := make([]byte, ticketIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("error generating ticket ID: %w", err)
		}
		b[i] = ticketIDAlphabet[n.Int64()]
	}
	return string(b), nil
}
