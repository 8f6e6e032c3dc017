package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/supportbot/pkg/custom"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
)

func (s *guildStore) AddTicket(ctx context.Context, guildID, ticketChannelID, userID, category string) error {
	return s.mutate(ctx, guildID, nil, func(g *entities.GuildConfig) (bool, error) {
		g.ActiveTickets[ticketChannelID] = &entities.TicketRecord{
			UserID:    entities.Snowflake(userID),
			ClaimedBy: nil,
			Category:  category,
			CreatedAt: custom.Now(),
		}
		s.l.Debug("Added ticket",
			slog.String(logging.KeyGuildID, guildID),
			slog.String(logging.KeyChannelID, ticketChannelID),
			slog.String(logging.KeyUserID, userID),
		)
		return true, nil
	})
}

func (s *guildStore) RemoveTicket(ctx context.Context, guildID, ticketChannelID string) error {
	return s.mutate(ctx, guildID, nil, func(g *entities.GuildConfig) (bool, error) {
		if _, ok := g.ActiveTickets[ticketChannelID]; !ok {
			return false, nil
		}
		delete(g.ActiveTickets, ticketChannelID)
		return true, nil
	})
}

func (s *guildStore) ClaimTicket(ctx context.Context, guildID, ticketChannelID, staffID string) error {
	return s.mutate(ctx, guildID, ErrTicketNotFound, func(g *entities.GuildConfig) (bool, error) {
		t, ok := g.ActiveTickets[ticketChannelID]
		if !ok {
			return false, fmt.Errorf("channel %s: %w", ticketChannelID, ErrTicketNotFound)
		}
		t.ClaimedBy = entities.SnowflakePtr(staffID)
		return true, nil
	})
}
