package main

import (
	"context"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"github.com/Jacobbrewer1/supportbot/pkg/prompt"
	"github.com/stretchr/testify/require"
)

const (
	adminID           = "800"
	settingsChannelID = "31"
)

func admin() *discordgo.Member {
	return member(adminID, "admin", discordgo.PermissionAdministrator)
}

func TestToggleSupport(t *testing.T) {
	a := newFakeApp(t)
	a.setupGuild(t)

	i := componentInteraction(settingsChannelID, ToggleSupportButtonID, admin())
	require.NoError(t, toggleSupportHandler(a, i))

	g, err := a.store.GetGuild(testGuildID)
	require.NoError(t, err)
	require.False(t, g.SupportEnabled)

	resp := a.platform.lastResponse(t)
	require.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	require.Equal(t, "Support Settings", resp.Data.Embeds[0].Title)

	b := buttons(resp.Data.Components)
	require.Len(t, b, 3)
	require.Equal(t, "Support Status: Disabled", b[0].Label)
	require.Equal(t, discordgo.DangerButton, b[0].Style)

	// And back again.
	require.NoError(t, toggleSupportHandler(a, componentInteraction(settingsChannelID, ToggleSupportButtonID, admin())))

	g, err = a.store.GetGuild(testGuildID)
	require.NoError(t, err)
	require.True(t, g.SupportEnabled)

	b = buttons(a.platform.lastResponse(t).Data.Components)
	require.Equal(t, "Support Status: Enabled", b[0].Label)
	require.Equal(t, discordgo.SuccessButton, b[0].Style)
}

func TestSettingsIgnoreNonAdministrators(t *testing.T) {
	handlers := map[string]commandProcessor{
		ToggleSupportButtonID: toggleSupportHandler,
		MaxTicketsButtonID:    maxTicketsHandler,
		DeleteAllButtonID:     deleteAllTicketsHandler,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			a := newFakeApp(t)
			a.setupGuild(t)
			require.NoError(t, a.store.AddTicket(context.Background(), testGuildID, "40", aliceID, "Discord Support"))

			before, err := a.store.GetGuild(testGuildID)
			require.NoError(t, err)

			require.NoError(t, handler(a, componentInteraction(settingsChannelID, name, member(staffID, "staff", 0, staffID))))

			require.Empty(t, a.platform.responses)
			require.Empty(t, a.platform.followups)

			after, err := a.store.GetGuild(testGuildID)
			require.NoError(t, err)
			require.Equal(t, before, after)
		})
	}
}

func TestMaxTickets(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		want        int
		wantNotice  string
		wantDeleted bool
	}{
		{name: "Valid", reply: "12", want: 12, wantNotice: "Max tickets set to 12", wantDeleted: true},
		{name: "Padded", reply: " 7 ", want: 7, wantNotice: "Max tickets set to 7", wantDeleted: true},
		{name: "ClampHigh", reply: "99", want: 50, wantNotice: "Max tickets set to 50", wantDeleted: true},
		{name: "ClampLow", reply: "0", want: 1, wantNotice: "Max tickets set to 1", wantDeleted: true},
		{name: "Negative", reply: "-4", want: 1, wantNotice: "Max tickets set to 1", wantDeleted: true},
		{name: "HugeNegative", reply: "-99999999999999999999", want: 1, wantNotice: "Max tickets set to 1", wantDeleted: true},
		{name: "HugePositive", reply: "99999999999999999999", want: 50, wantNotice: "Max tickets set to 50", wantDeleted: true},
		{name: "Decimal", reply: "2.5", want: 50, wantNotice: "Invalid input. Max tickets set to 50"},
		{name: "Invalid", reply: "lots", want: 50, wantNotice: "Invalid input. Max tickets set to 50"},
		{name: "Timeout", reply: "", want: 50, wantNotice: "Timeout. Max tickets set to 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newFakeApp(t)
			a.timings.PromptTimeout = 50 * time.Millisecond
			a.setupGuild(t)

			maxTickets := 20
			require.NoError(t, a.store.UpdateSettings(context.Background(), testGuildID, entities.SettingsUpdate{MaxTickets: &maxTickets}))

			a.platform.onRespond = func(i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
				if resp.Data.Content == msgAskMaxTickets && tt.reply != "" {
					require.True(t, reply(a, i.ChannelID, adminID, tt.reply))
				}
			}

			require.NoError(t, maxTicketsHandler(a, componentInteraction(settingsChannelID, MaxTicketsButtonID, admin())))

			ask := a.platform.responses[0].resp
			require.Equal(t, msgAskMaxTickets, ask.Data.Content)
			require.Equal(t, discordgo.MessageFlagsEphemeral, ask.Data.Flags)

			notice := a.platform.lastFollowup(t)
			require.Equal(t, tt.wantNotice, notice.Content)
			require.Equal(t, discordgo.MessageFlagsEphemeral, notice.Flags)

			g, err := a.store.GetGuild(testGuildID)
			require.NoError(t, err)
			require.Equal(t, tt.want, g.MaxTickets)

			if tt.wantDeleted {
				require.Len(t, a.platform.deletedMessages, 1)
			} else {
				require.Empty(t, a.platform.deletedMessages)
			}
		})
	}
}

func TestMaxTicketsNotSetUp(t *testing.T) {
	a := newFakeApp(t)

	require.NoError(t, maxTicketsHandler(a, componentInteraction(settingsChannelID, MaxTicketsButtonID, admin())))

	resp := a.platform.lastResponse(t)
	require.Equal(t, msgNotSetUp, resp.Data.Content)
	require.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	require.Len(t, a.platform.responses, 1)
	require.Empty(t, a.platform.followups)

	_, err := a.store.GetGuild(testGuildID)
	require.ErrorIs(t, err, dataaccess.ErrGuildNotFound)
}

func TestDeleteAllTickets(t *testing.T) {
	a := newFakeApp(t)
	a.setupGuild(t)

	ctx := context.Background()
	for _, id := range []string{"40", "41", "42"} {
		require.NoError(t, a.store.AddTicket(ctx, testGuildID, id, aliceID, "Discord Support"))
	}
	a.platform.addChannel("40", testCategoryID)
	a.platform.addChannel("41", testCategoryID)
	a.platform.failDeletes["41"] = true
	// 42 has already been deleted by hand.

	a.platform.onRespond = func(i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
		if resp.Data.Content == msgConfirmDeleteAll {
			require.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
			require.True(t, pressConfirmation(t, a, resp.Data.Components, adminID, true))
		}
	}

	require.NoError(t, deleteAllTicketsHandler(a, componentInteraction(settingsChannelID, DeleteAllButtonID, admin())))

	g, err := a.store.GetGuild(testGuildID)
	require.NoError(t, err)
	require.Empty(t, g.ActiveTickets)
	require.Equal(t, []string{"40"}, a.platform.deletedChannels)

	resolved := a.platform.lastResponse(t)
	require.Equal(t, discordgo.InteractionResponseUpdateMessage, resolved.Type)
	require.Equal(t, msgDeletingAll, resolved.Data.Content)
	require.NotNil(t, resolved.Data.Components)
	require.Empty(t, resolved.Data.Components)

	require.Equal(t, "All tickets have been deleted!", a.platform.lastFollowup(t).Content)

	// The store document on disk agrees.
	doc, err := a.backend.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, doc[testGuildID].ActiveTickets)
}

func TestDeleteAllTicketsCancelled(t *testing.T) {
	a := newFakeApp(t)
	a.setupGuild(t)
	require.NoError(t, a.store.AddTicket(context.Background(), testGuildID, "40", aliceID, "Discord Support"))
	a.platform.addChannel("40", testCategoryID)

	a.platform.onRespond = func(i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
		if resp.Data.Content == msgConfirmDeleteAll {
			require.True(t, pressConfirmation(t, a, resp.Data.Components, adminID, false))
		}
	}

	require.NoError(t, deleteAllTicketsHandler(a, componentInteraction(settingsChannelID, DeleteAllButtonID, admin())))

	g, err := a.store.GetGuild(testGuildID)
	require.NoError(t, err)
	require.Contains(t, g.ActiveTickets, "40")
	require.Empty(t, a.platform.deletedChannels)
	require.Equal(t, msgDeleteAllCancelled, a.platform.lastResponse(t).Data.Content)
	require.Empty(t, a.platform.followups)
}

func TestDeleteAllTicketsTimeout(t *testing.T) {
	a := newFakeApp(t)
	a.timings.PromptTimeout = 20 * time.Millisecond
	a.setupGuild(t)
	require.NoError(t, a.store.AddTicket(context.Background(), testGuildID, "40", aliceID, "Discord Support"))

	require.NoError(t, deleteAllTicketsHandler(a, componentInteraction(settingsChannelID, DeleteAllButtonID, admin())))

	g, err := a.store.GetGuild(testGuildID)
	require.NoError(t, err)
	require.Contains(t, g.ActiveTickets, "40")
	require.Len(t, a.platform.responses, 1)
}

func TestConfirmationHandler(t *testing.T) {
	a := newFakeApp(t)

	// Nothing is waiting for this nonce.
	require.NoError(t, confirmationHandler(a, componentInteraction(testChannelID, "confirm:deadbeef", admin())))
	require.Equal(t, msgPromptExpired, a.platform.lastResponse(t).Data.Content)

	c, err := a.waiter.ExpectConfirmation(adminID)
	require.NoError(t, err)
	defer c.Cancel()

	require.NoError(t, confirmationHandler(a, componentInteraction(testChannelID, c.ConfirmID(), member(aliceID, "alice", 0))))
	require.Equal(t, msgNotYourPrompt, a.platform.lastResponse(t).Data.Content)

	responses := len(a.platform.responses)
	require.NoError(t, confirmationHandler(a, componentInteraction(testChannelID, c.CancelID(), admin())))
	require.Len(t, a.platform.responses, responses, "the waiting flow responds to the press")

	choice, err := c.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	require.False(t, choice.Confirmed)
	require.NotNil(t, choice.Interaction)
}

func TestComponentRoutesCoverPanels(t *testing.T) {
	routes := componentRoutes()

	ids := []string{CategorySelectID, prompt.ConfirmPrefix, prompt.CancelPrefix}
	for _, b := range buttons(ticketPanelComponents(nil)) {
		ids = append(ids, b.CustomID)
	}
	for _, b := range buttons(ticketManageComponents("")) {
		ids = append(ids, b.CustomID)
	}
	g := entities.NewGuildConfig(testCategoryID, testChannelID)
	for _, b := range buttons(settingsPanelComponents(g)) {
		ids = append(ids, b.CustomID)
	}

	for _, id := range ids {
		require.Contains(t, routes, id)
	}
}
