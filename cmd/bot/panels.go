package main

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
)

const (
	// CategorySelectID is the ID for the support category select menu.
	CategorySelectID = "category_select"

	// CreateTicketButtonID is the ID for the create ticket button. Once a category is picked the category slug is
	// appended, e.g. "create_ticket:discord-support".
	CreateTicketButtonID = "create_ticket"

	// ClaimTicketButtonID is the ID for the claim ticket button.
	ClaimTicketButtonID = "claim_ticket"

	// CloseTicketButtonID is the ID for the close ticket button.
	CloseTicketButtonID = "close_ticket"

	// ToggleSupportButtonID is the ID for the support status button.
	ToggleSupportButtonID = "toggle_support"

	// MaxTicketsButtonID is the ID for the max tickets button.
	MaxTicketsButtonID = "max_tickets"

	// DeleteAllButtonID is the ID for the delete all tickets button.
	DeleteAllButtonID = "delete_all"
)

const (
	colourBlue  = 0x3498db
	colourGreen = 0x2ecc71
	colourRed   = 0xe74c3c
)

// ticketPanelEmbed is the embed of the ticket creation panel. A nil category shows the instructions for picking one.
func ticketPanelEmbed(category *entities.SupportCategory) *discordgo.MessageEmbed {
	if category == nil {
		return &discordgo.MessageEmbed{
			Title:       "Support Tickets",
			Description: "Please choose a subject from the dropdown menu before you are able to click 'Create Ticket'.",
			Color:       colourBlue,
		}
	}

	return &discordgo.MessageEmbed{
		Title:       "Support Tickets",
		Description: "Please click 'Create Ticket' below to start your support request.",
		Color:       colourBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Selected Category",
				Value:  category.Label,
				Inline: false,
			},
		},
	}
}

// ticketPanelComponents are the select menu and create button of the ticket creation panel. The button is disabled
// until a category is picked, and then carries the category in its custom ID.
func ticketPanelComponents(category *entities.SupportCategory) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(entities.SupportCategories))
	for _, c := range entities.SupportCategories {
		options = append(options, discordgo.SelectMenuOption{
			Label:       c.Label,
			Value:       c.Label,
			Description: c.Description,
			Default:     category != nil && category.Label == c.Label,
		})
	}

	create := discordgo.Button{
		Label:    "Create Ticket",
		Style:    discordgo.SuccessButton,
		Disabled: true,
		CustomID: CreateTicketButtonID,
	}
	if category != nil {
		create.Disabled = false
		create.CustomID = CreateTicketButtonID + ":" + category.Slug()
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    CategorySelectID,
					Placeholder: "Select support category",
					Options:     options,
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				create,
			},
		},
	}
}

// ticketManageComponents are the claim and close buttons of a ticket channel. claimedBy is the display name of the
// claimant, empty while unclaimed.
func ticketManageComponents(claimedBy string) []discordgo.MessageComponent {
	claim := discordgo.Button{
		Label:    "Claim Ticket",
		Style:    discordgo.PrimaryButton,
		CustomID: ClaimTicketButtonID,
	}
	if claimedBy != "" {
		claim.Label = truncateLabel("Claimed by " + claimedBy)
		claim.Disabled = true
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				claim,
				discordgo.Button{
					Label:    "Close Ticket",
					Style:    discordgo.DangerButton,
					CustomID: CloseTicketButtonID,
				},
			},
		},
	}
}

// ticketManageEmbed is the header of a ticket channel.
func ticketManageEmbed(ticketID, userID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Ticket #" + ticketID,
		Description: fmt.Sprintf("Created by %s\nWait for a staff member to claim your ticket.", discord.UserMention(userID)),
		Color:       colourBlue,
	}
}

// ticketInfoEmbed describes the ticket.
func ticketInfoEmbed(ticketID string, category entities.SupportCategory, user *discordgo.User, ticket *entities.TicketRecord) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Ticket Information",
		Color: colourBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Category",
				Value:  category.Label,
				Inline: true,
			},
			{
				Name:   "Opened By",
				Value:  discord.UserMention(user.ID),
				Inline: true,
			},
			{
				Name:   "Ticket ID",
				Value:  ticketID,
				Inline: true,
			},
			{
				Name:   "Opened At",
				Value:  ticket.CreatedAt.String(),
				Inline: false,
			},
		},
	}
}

// settingsPanelEmbed is the embed of the settings panel.
func settingsPanelEmbed(g *entities.GuildConfig) *discordgo.MessageEmbed {
	status, colour := "Enabled", colourBlue
	if !g.SupportEnabled {
		status, colour = "Disabled", colourRed
	}

	return &discordgo.MessageEmbed{
		Title:       "Support Settings",
		Description: "Control panel for support ticket system",
		Color:       colour,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Status",
				Value:  status,
				Inline: true,
			},
			{
				Name:   "Max Tickets",
				Value:  fmt.Sprintf("%d", g.MaxTickets),
				Inline: true,
			},
			{
				Name:   "Open Tickets",
				Value:  fmt.Sprintf("%d", len(g.ActiveTickets)),
				Inline: true,
			},
		},
	}
}

// settingsPanelComponents are the buttons of the settings panel, rendered from the stored settings.
func settingsPanelComponents(g *entities.GuildConfig) []discordgo.MessageComponent {
	toggle := discordgo.Button{
		Label:    "Support Status: Enabled",
		Style:    discordgo.SuccessButton,
		CustomID: ToggleSupportButtonID,
	}
	if !g.SupportEnabled {
		toggle.Label = "Support Status: Disabled"
		toggle.Style = discordgo.DangerButton
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				toggle,
				discordgo.Button{
					Label:    "Set Max Tickets",
					Style:    discordgo.PrimaryButton,
					CustomID: MaxTicketsButtonID,
				},
				discordgo.Button{
					Label:    "Delete All Tickets",
					Style:    discordgo.DangerButton,
					CustomID: DeleteAllButtonID,
				},
			},
		},
	}
}

// truncateLabel keeps a button label within Discord's 80 character limit.
func truncateLabel(label string) string {
	const maxLabel = 80
	r := []rune(label)
	if len(r) <= maxLabel {
		return label
	}
	return string(r[:maxLabel])
}
