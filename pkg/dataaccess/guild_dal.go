package dataaccess

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
)

const guildStoreName = "guild_store"

// GuildStore holds the support configuration and open tickets of every guild. Every mutation is persisted to the
// backend before it returns.
type GuildStore interface {
	// AddGuild creates or overwrites the guild's configuration with the defaults.
	AddGuild(ctx context.Context, guildID, categoryID, channelID string) error

	// UpdateSettings applies the non-nil fields of the update. It does nothing if the guild is unknown.
	UpdateSettings(ctx context.Context, guildID string, update entities.SettingsUpdate) error

	// GetGuild gets a copy of the guild's configuration.
	GetGuild(guildID string) (*entities.GuildConfig, error)

	// AddTicket registers an open ticket. It does nothing if the guild is unknown.
	AddTicket(ctx context.Context, guildID, ticketChannelID, userID, category string) error

	// RemoveTicket removes a ticket. It is not an error if the ticket does not exist.
	RemoveTicket(ctx context.Context, guildID, ticketChannelID string) error

	// ClaimTicket records the staff member that claimed the ticket.
	ClaimTicket(ctx context.Context, guildID, ticketChannelID, staffID string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close(ctx context.Context) error
}

type guildStore struct {
	// l is the logger.
	l *slog.Logger

	// mut serialises every operation, including the persist that follows a mutation.
	mut sync.Mutex

	// guilds is the in-memory document.
	guilds entities.Document

	// backend is the durable storage.
	backend Backend
}

// NewGuildStore loads the document from the backend. A missing document starts an empty store; a document that
// cannot be decoded is an error.
func NewGuildStore(ctx context.Context, l *slog.Logger, backend Backend) (GuildStore, error) {
	l = l.With(slog.String(logging.KeyDal, guildStoreName), slog.String("backend", backend.Name()))

	doc, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading document: %w", err)
	}

	l.Info("Loaded guild store", slog.Int("guilds", len(doc)))
	monitoring.StoreGuilds.Set(float64(len(doc)))

	return &guildStore{
		l:       l,
		guilds:  doc,
		backend: backend,
	}, nil
}

func (s *guildStore) AddGuild(ctx context.Context, guildID, categoryID, channelID string) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	prev := s.guilds[guildID]
	s.guilds[guildID] = entities.NewGuildConfig(categoryID, channelID)

	if err := s.persist(ctx); err != nil {
		s.restore(guildID, prev)
		return fmt.Errorf("error saving guild: %w", err)
	}

	monitoring.StoreGuilds.Set(float64(len(s.guilds)))
	s.l.Debug("Added guild", slog.String(logging.KeyGuildID, guildID))
	return nil
}

func (s *guildStore) UpdateSettings(ctx context.Context, guildID string, update entities.SettingsUpdate) error {
	return s.mutate(ctx, guildID, nil, func(g *entities.GuildConfig) (bool, error) {
		update.Apply(g)
		return true, nil
	})
}

func (s *guildStore) GetGuild(guildID string) (*entities.GuildConfig, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	g, ok := s.guilds[guildID]
	if !ok {
		return nil, fmt.Errorf("guild %s: %w", guildID, ErrGuildNotFound)
	}
	return g.Clone(), nil
}

func (s *guildStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *guildStore) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

// mutate applies fn to the guild and persists the result. Unknown guilds are skipped, or reported as missing when
// missing is not nil. fn reports whether it changed anything; unchanged guilds are not persisted. If fn or the persist
// fails the guild is rolled back. Callers must not hold mut.
func (s *guildStore) mutate(ctx context.Context, guildID string, missing error, fn func(g *entities.GuildConfig) (bool, error)) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	g, ok := s.guilds[guildID]
	if !ok && missing != nil {
		return fmt.Errorf("guild %s: %w", guildID, missing)
	} else if !ok {
		s.l.Debug("Skipping update for unknown guild", slog.String(logging.KeyGuildID, guildID))
		return nil
	}

	prev := g.Clone()
	changed, err := fn(g)
	if err != nil {
		s.guilds[guildID] = prev
		return err
	} else if !changed {
		return nil
	}

	if err := s.persist(ctx); err != nil {
		s.guilds[guildID] = prev
		return fmt.Errorf("error saving guild: %w", err)
	}
	return nil
}

// persist writes the whole document. Callers must hold mut.
func (s *guildStore) persist(ctx context.Context) error {
	return s.backend.Save(ctx, s.guilds)
}

// restore puts back the previous state of a guild. Callers must hold mut.
func (s *guildStore) restore(guildID string, prev *entities.GuildConfig) {
	if prev == nil {
		delete(s.guilds, guildID)
		return
	}
	s.guilds[guildID] = prev
}
