package main

import (
	"github.com/Jacobbrewer1/discordgo"
)

const (
	// msgErrorProcessing is shown to the user when a handler fails.
	msgErrorProcessing = "There was an error processing your request. Please try again later."

	// msgNotSetUp is shown when the guild has no support configuration.
	msgNotSetUp = "The support system has not been set up on this server."

	// msgNotATicket is shown when a ticket action is used outside an active ticket channel.
	msgNotATicket = "This channel is not an active ticket."
)

func respondSlashError(a IApp, i *discordgo.InteractionCreate) error {
	return respondEphemeral(a, i, msgErrorProcessing)
}

// respondEphemeral responds with a message only the invoking user can see.
func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Platform().Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondMessage responds with a message everyone in the channel can see.
func respondMessage(a IApp, i *discordgo.Interaction, content string) error {
	return a.Platform().Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// respondUpdate replaces the embeds and components of the message the component belongs to. Both are always sent,
// as Discord keeps whatever is omitted.
func respondUpdate(a IApp, i *discordgo.Interaction, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}

	return a.Platform().Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: components,
		},
	})
}

// respondResolved replaces the content of a prompt message and removes its buttons.
func respondResolved(a IApp, i *discordgo.Interaction, content string) error {
	return a.Platform().Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
}

// followupEphemeral sends a follow-up message only the invoking user can see.
func followupEphemeral(a IApp, i *discordgo.Interaction, content string) error {
	_, err := a.Platform().Followup(i, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// interactionMember is the guild member behind an interaction. It is nil for interactions outside a guild.
func interactionMember(i *discordgo.InteractionCreate) *discordgo.Member {
	if i.GuildID == "" {
		return nil
	}
	return i.Member
}
