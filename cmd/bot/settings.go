package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
	"github.com/Jacobbrewer1/supportbot/pkg/prompt"
	"golang.org/x/time/rate"
)

const (
	msgAskMaxTickets      = "How many tickets maximum? (1-50)"
	msgMaxTicketsSetTmpl  = "Max tickets set to %d"
	msgMaxTicketsInvalid  = "Invalid input. Max tickets set to 50"
	msgMaxTicketsTimeout  = "Timeout. Max tickets set to 50"
	msgConfirmDeleteAll   = "Are you sure you want to delete ALL tickets?"
	msgDeletingAll        = "Deleting all tickets..."
	msgDeleteAllCancelled = "No tickets were deleted."
	msgDeletedAll         = "All tickets have been deleted!"
	msgPromptExpired      = "This prompt has expired."
	msgNotYourPrompt      = "This confirmation is not for you."
)

// isAdministratorInteraction reports whether the interaction was made by a guild administrator.
func isAdministratorInteraction(i *discordgo.InteractionCreate) bool {
	member := interactionMember(i)
	return member != nil && discord.IsAdministrator(member.Permissions)
}

// toggleSupportHandler flips whether new tickets can be created and re-renders the settings panel.
func toggleSupportHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !isAdministratorInteraction(i) {
		return nil
	}

	ctx := context.Background()

	g, err := a.Store().GetGuild(i.GuildID)
	if errors.Is(err, dataaccess.ErrGuildNotFound) {
		return respondEphemeral(a, i, msgNotSetUp)
	} else if err != nil {
		return fmt.Errorf("error getting guild: %w", err)
	}

	enabled := !g.SupportEnabled
	if err := a.Store().UpdateSettings(ctx, i.GuildID, entities.SettingsUpdate{SupportEnabled: &enabled}); err != nil {
		return fmt.Errorf("error saving support status: %w", err)
	}

	g, err = a.Store().GetGuild(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild: %w", err)
	}

	a.Log().Info("Support status changed",
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.Bool("enabled", g.SupportEnabled),
	)

	return respondUpdate(a, i.Interaction, []*discordgo.MessageEmbed{settingsPanelEmbed(g)}, settingsPanelComponents(g))
}

// maxTicketsHandler asks the administrator for the new ticket cap and waits for their reply.
func maxTicketsHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !isAdministratorInteraction(i) {
		return nil
	}

	ctx := context.Background()
	user := discord.InteractionUser(i.Interaction)

	if _, err := a.Store().GetGuild(i.GuildID); errors.Is(err, dataaccess.ErrGuildNotFound) {
		return respondEphemeral(a, i, msgNotSetUp)
	} else if err != nil {
		return fmt.Errorf("error getting guild: %w", err)
	}

	wait := a.Prompts().ExpectMessage(i.ChannelID, user.ID)
	defer wait.Cancel()

	if err := respondEphemeral(a, i, msgAskMaxTickets); err != nil {
		return err
	}

	m, err := wait.Wait(ctx, a.Timings().PromptTimeout)
	if err != nil && !errors.Is(err, prompt.ErrTimeout) {
		return fmt.Errorf("error waiting for max tickets: %w", err)
	}

	maxTickets, notice, valid := parseMaxTickets(m, err)

	if err := a.Store().UpdateSettings(ctx, i.GuildID, entities.SettingsUpdate{MaxTickets: &maxTickets}); err != nil {
		return fmt.Errorf("error saving max tickets: %w", err)
	}

	if valid {
		if err := a.Platform().DeleteMessage(m.ChannelID, m.ID); err != nil {
			a.Log().Warn("Error deleting max tickets reply", slog.String(logging.KeyError, err.Error()))
		}
	}

	return followupEphemeral(a, i.Interaction, notice)
}

// parseMaxTickets turns the reply to the max tickets prompt into the new cap and the notice for the administrator.
// valid reports whether the reply was a number.
func parseMaxTickets(m *discordgo.Message, waitErr error) (n int, notice string, valid bool) {
	if waitErr != nil || m == nil {
		return entities.DefaultMaxTickets, msgMaxTicketsTimeout, false
	}

	// Out of range integers are still numbers. Atoi saturates them to the nearest int, which the clamp handles.
	n, err := strconv.Atoi(strings.TrimSpace(m.Content))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return entities.DefaultMaxTickets, msgMaxTicketsInvalid, false
	}

	n = entities.ClampMaxTickets(n)
	return n, fmt.Sprintf(msgMaxTicketsSetTmpl, n), true
}

// deleteAllTicketsHandler deletes every open ticket of the guild once the administrator confirms.
func deleteAllTicketsHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !isAdministratorInteraction(i) {
		return nil
	}

	ctx := context.Background()
	user := discord.InteractionUser(i.Interaction)

	conf, err := a.Prompts().ExpectConfirmation(user.ID)
	if err != nil {
		return err
	}
	defer conf.Cancel()

	if err := a.Platform().Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    msgConfirmDeleteAll,
			Components: conf.Components(),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		return err
	}

	choice, err := conf.Wait(ctx, a.Timings().PromptTimeout)
	if errors.Is(err, prompt.ErrTimeout) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error waiting for confirmation: %w", err)
	}

	if !choice.Confirmed {
		return respondResolved(a, choice.Interaction, msgDeleteAllCancelled)
	}

	if err := respondResolved(a, choice.Interaction, msgDeletingAll); err != nil {
		return err
	}

	if err := deleteAllTickets(ctx, a, i.GuildID); err != nil {
		return err
	}
	return followupEphemeral(a, choice.Interaction, msgDeletedAll)
}

// deleteAllTickets deletes the channel of every open ticket and removes the tickets from the store. Channels that
// cannot be deleted are logged and their tickets are removed anyway.
func deleteAllTickets(ctx context.Context, a IApp, guildID string) error {
	g, err := a.Store().GetGuild(guildID)
	if errors.Is(err, dataaccess.ErrGuildNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error getting guild: %w", err)
	}

	l := a.Log().With(slog.String(logging.KeyGuildID, guildID))

	limit := rate.Inf
	if pace := a.Timings().DeletePace; pace > 0 {
		limit = rate.Every(pace)
	}
	limiter := rate.NewLimiter(limit, 1)

	for channelID := range g.ActiveTickets {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("error pacing deletions: %w", err)
		}

		if err := a.Platform().DeleteChannel(channelID); err != nil {
			l.Warn("Error deleting ticket channel",
				slog.String(logging.KeyChannelID, channelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}

		if err := a.Store().RemoveTicket(ctx, guildID, channelID); err != nil {
			return fmt.Errorf("error removing ticket: %w", err)
		}
		monitoring.TicketsClosed.WithLabelValues("delete_all").Inc()
	}

	l.Info("Deleted all tickets", slog.Int("tickets", len(g.ActiveTickets)))
	return nil
}

// confirmationHandler hands confirm and cancel presses to the flow waiting for them.
func confirmationHandler(a IApp, i *discordgo.InteractionCreate) error {
	nonce, confirmed, ok := prompt.ParseConfirmationID(i.MessageComponentData().CustomID)
	if !ok {
		return respondEphemeral(a, i, msgPromptExpired)
	}

	user := discord.InteractionUser(i.Interaction)

	err := a.Prompts().Resolve(nonce, user.ID, confirmed, i.Interaction)
	switch {
	case errors.Is(err, prompt.ErrUnknownPrompt):
		return respondEphemeral(a, i, msgPromptExpired)
	case errors.Is(err, prompt.ErrNotYourPrompt):
		return respondEphemeral(a, i, msgNotYourPrompt)
	case err != nil:
		return fmt.Errorf("error resolving confirmation: %w", err)
	}
	return nil
}
