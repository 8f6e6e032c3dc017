package main

import (
	"errors"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
)

// filterSupportChannel deletes messages posted in a guild's support channel, which only hosts the ticket panel.
func filterSupportChannel(a IApp, m *discordgo.MessageCreate) {
	if m.GuildID == "" {
		return
	}

	g, err := a.Store().GetGuild(m.GuildID)
	if errors.Is(err, dataaccess.ErrGuildNotFound) {
		return
	} else if err != nil {
		a.Log().Error("Error getting guild", slog.String(logging.KeyError, err.Error()))
		return
	}

	if m.ChannelID != string(g.ChannelID) {
		return
	}

	if err := a.Platform().DeleteMessage(m.ChannelID, m.ID); err != nil && !errors.Is(err, discord.ErrNotFound) {
		a.Log().Warn("Error deleting message in support channel",
			slog.String(logging.KeyGuildID, m.GuildID),
			slog.String(logging.KeyChannelID, m.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}
