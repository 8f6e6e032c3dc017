package dataaccess

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jacobbrewer1/supportbot/pkg/entities"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
	"github.com/stretchr/testify/require"
)

// memoryBackend keeps the saved document in memory.
type memoryBackend struct {
	doc     entities.Document
	saves   int
	saveErr error
}

func (b *memoryBackend) Name() string { return "memory" }

func (b *memoryBackend) Load(context.Context) (entities.Document, error) {
	if b.doc == nil {
		return make(entities.Document), nil
	}
	return b.doc.Clone(), nil
}

func (b *memoryBackend) Save(_ context.Context, doc entities.Document) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saves++
	b.doc = doc.Clone()
	return nil
}

func (b *memoryBackend) Ping(context.Context) error  { return nil }
func (b *memoryBackend) Close(context.Context) error { return nil }

func testLogger(t *testing.T) *slog.Logger {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")
	return l
}

func newTestStore(t *testing.T, backend Backend) GuildStore {
	s, err := NewGuildStore(context.Background(), testLogger(t), backend)
	require.NoError(t, err)
	return s
}

func intPtr(n int) *int { return &n }

func TestAddGuildDefaults(t *testing.T) {
	ctx := context.Background()
	b := new(memoryBackend)
	s := newTestStore(t, b)

	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))

	g, err := s.GetGuild("G")
	require.NoError(t, err)
	require.Equal(t, &entities.GuildConfig{
		CategoryID:        "10",
		ChannelID:         "20",
		SettingsChannelID: nil,
		SupportEnabled:    true,
		MaxTickets:        50,
		ActiveTickets:     map[string]*entities.TicketRecord{},
	}, g)
	require.Equal(t, 1, b.saves)
}

func TestAddGuildOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, new(memoryBackend))

	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))
	require.NoError(t, s.AddTicket(ctx, "G", "77", "5", "Discord Support"))
	require.NoError(t, s.UpdateSettings(ctx, "G", entities.SettingsUpdate{MaxTickets: intPtr(3)}))

	require.NoError(t, s.AddGuild(ctx, "G", "11", "21"))

	g, err := s.GetGuild("G")
	require.NoError(t, err)
	require.Equal(t, entities.Snowflake("11"), g.CategoryID)
	require.Equal(t, 50, g.MaxTickets)
	require.Empty(t, g.ActiveTickets)
}

func TestGetGuildNotFound(t *testing.T) {
	s := newTestStore(t, new(memoryBackend))

	g, err := s.GetGuild("missing")
	require.ErrorIs(t, err, ErrGuildNotFound)
	require.Nil(t, g)
}

func TestGetGuildReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, new(memoryBackend))
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))

	g, err := s.GetGuild("G")
	require.NoError(t, err)
	g.MaxTickets = 1
	g.ActiveTickets["99"] = &entities.TicketRecord{UserID: "1"}

	again, err := s.GetGuild("G")
	require.NoError(t, err)
	require.Equal(t, 50, again.MaxTickets)
	require.Empty(t, again.ActiveTickets)
}

func TestUpdateSettingsClampsMaxTickets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, new(memoryBackend))
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))

	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "AboveCeiling", in: 999, want: 50},
		{name: "Ceiling", in: 50, want: 50},
		{name: "InRange", in: 7, want: 7},
		{name: "Floor", in: 1, want: 1},
		{name: "Zero", in: 0, want: 1},
		{name: "Negative", in: -3, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.UpdateSettings(ctx, "G", entities.SettingsUpdate{MaxTickets: intPtr(tt.in)}))

			g, err := s.GetGuild("G")
			require.NoError(t, err)
			require.Equal(t, tt.want, g.MaxTickets)
		})
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, new(memoryBackend))
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))

	disabled := false
	require.NoError(t, s.UpdateSettings(ctx, "G", entities.SettingsUpdate{SupportEnabled: &disabled}))

	settings := "30"
	require.NoError(t, s.UpdateSettings(ctx, "G", entities.SettingsUpdate{SettingsChannelID: &settings}))

	g, err := s.GetGuild("G")
	require.NoError(t, err)
	require.False(t, g.SupportEnabled)
	require.Equal(t, 50, g.MaxTickets)
	require.Equal(t, entities.Snowflake("30"), *g.SettingsChannelID)
}

func TestUpdateSettingsUnknownGuildIsNoop(t *testing.T) {
	b := new(memoryBackend)
	s := newTestStore(t, b)

	require.NoError(t, s.UpdateSettings(context.Background(), "missing", entities.SettingsUpdate{MaxTickets: intPtr(3)}))
	require.Equal(t, 0, b.saves)

	_, err := s.GetGuild("missing")
	require.ErrorIs(t, err, ErrGuildNotFound)
}

func TestAddTicketUnknownGuildIsNoop(t *testing.T) {
	b := new(memoryBackend)
	s := newTestStore(t, b)

	require.NoError(t, s.AddTicket(context.Background(), "missing", "77", "5", "Discord Support"))
	require.Equal(t, 0, b.saves)
}

func TestAddRemoveTicketRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, new(memoryBackend))
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))
	require.NoError(t, s.AddTicket(ctx, "G", "76", "4", "Other Support"))

	before, err := s.GetGuild("G")
	require.NoError(t, err)

	require.NoError(t, s.AddTicket(ctx, "G", "77", "5", "Discord Support"))

	during, err := s.GetGuild("G")
	require.NoError(t, err)
	require.Len(t, during.ActiveTickets, 2)
	require.Equal(t, entities.Snowflake("5"), during.ActiveTickets["77"].UserID)
	require.Nil(t, during.ActiveTickets["77"].ClaimedBy)
	require.False(t, during.ActiveTickets["77"].CreatedAt.IsZero())

	require.NoError(t, s.RemoveTicket(ctx, "G", "77"))

	after, err := s.GetGuild("G")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRemoveMissingTicketSkipsPersist(t *testing.T) {
	ctx := context.Background()
	b := new(memoryBackend)
	s := newTestStore(t, b)
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))
	saves := b.saves

	require.NoError(t, s.RemoveTicket(ctx, "G", "404"))
	require.NoError(t, s.RemoveTicket(ctx, "missing", "404"))
	require.Equal(t, saves, b.saves)
}

func TestClaimTicket(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, new(memoryBackend))
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))
	require.NoError(t, s.AddTicket(ctx, "G", "77", "5", "Discord Support"))

	require.NoError(t, s.ClaimTicket(ctx, "G", "77", "42"))

	g, err := s.GetGuild("G")
	require.NoError(t, err)
	require.True(t, g.ActiveTickets["77"].IsClaimed())
	require.Equal(t, entities.Snowflake("42"), *g.ActiveTickets["77"].ClaimedBy)
}

func TestClaimMissingTicketFails(t *testing.T) {
	ctx := context.Background()
	b := new(memoryBackend)
	s := newTestStore(t, b)
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))

	before, err := s.GetGuild("G")
	require.NoError(t, err)
	saves := b.saves

	err = s.ClaimTicket(ctx, "G", "999", "42")
	require.ErrorIs(t, err, ErrTicketNotFound)

	after, err := s.GetGuild("G")
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, saves, b.saves)

	require.ErrorIs(t, s.ClaimTicket(ctx, "missing", "999", "42"), ErrTicketNotFound)
}

func TestBulkRemoveEmptiesTickets(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, new(memoryBackend))
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))
	require.NoError(t, s.AddTicket(ctx, "G", "77", "5", "Discord Support"))
	require.NoError(t, s.AddTicket(ctx, "G", "78", "6", "Minecraft Support"))

	g, err := s.GetGuild("G")
	require.NoError(t, err)
	for id := range g.ActiveTickets {
		require.NoError(t, s.RemoveTicket(ctx, "G", id))
	}

	g, err = s.GetGuild("G")
	require.NoError(t, err)
	require.Empty(t, g.ActiveTickets)
}

func TestFailedPersistRollsBack(t *testing.T) {
	ctx := context.Background()
	b := new(memoryBackend)
	s := newTestStore(t, b)
	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))

	b.saveErr = errors.New("disk full")

	require.Error(t, s.AddTicket(ctx, "G", "77", "5", "Discord Support"))
	require.Error(t, s.AddGuild(ctx, "H", "11", "21"))

	g, err := s.GetGuild("G")
	require.NoError(t, err)
	require.Empty(t, g.ActiveTickets)

	_, err = s.GetGuild("H")
	require.ErrorIs(t, err, ErrGuildNotFound)
}

func TestPersistedDocumentMatchesMemory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "server_data.json")
	backend := NewFileBackend(path)
	s := newTestStore(t, backend)

	require.NoError(t, s.AddGuild(ctx, "G", "10", "20"))
	require.NoError(t, s.AddTicket(ctx, "G", "77", "5", "Discord Support"))
	require.NoError(t, s.ClaimTicket(ctx, "G", "77", "42"))
	settings := "30"
	require.NoError(t, s.UpdateSettings(ctx, "G", entities.SettingsUpdate{SettingsChannelID: &settings, MaxTickets: intPtr(12)}))

	want, err := s.GetGuild("G")
	require.NoError(t, err)

	doc, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, doc["G"])

	reloaded := newTestStore(t, NewFileBackend(path))
	got, err := reloaded.GetGuild("G")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestNewGuildStoreMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"G": [`), 0o600))

	_, err := NewGuildStore(context.Background(), testLogger(t), NewFileBackend(path))
	require.Error(t, err)
}
