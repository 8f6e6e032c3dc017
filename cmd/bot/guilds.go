package main

import (
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
)

func (a *App) guildJoinedHandler() func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		l := a.With(slog.String(logging.KeyGuildID, g.ID))

		a.commandsMut.Lock()
		_, known := a.commands[g.ID]
		a.commandsMut.Unlock()
		if known {
			// The guild became available again after an outage.
			return
		}

		l.Info("Joined guild", slog.String("name", g.Name))

		// Increment the total number of guilds.
		monitoring.TotalDiscordGuilds.Inc()

		if err := a.registerSlashCommands(g.ID); err != nil {
			l.Error("Error registering slash commands", slog.String(logging.KeyError, err.Error()))
		}
	}
}

func (a *App) guildLeaveHandler() func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			// An outage, the bot is still a member.
			return
		}

		a.Info("Left guild", slog.String(logging.KeyGuildID, g.ID))

		a.commandsMut.Lock()
		delete(a.commands, g.ID)
		a.commandsMut.Unlock()

		// Decrement the total number of guilds.
		monitoring.TotalDiscordGuilds.Dec()
	}
}
