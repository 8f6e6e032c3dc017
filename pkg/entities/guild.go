package entities

import "encoding/json"

// Document is the persisted mapping of guild ID to the guild's support configuration.
type Document map[string]*GuildConfig

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for id, g := range d {
		out[id] = g.Clone()
	}
	return out
}

// GuildConfig is the support configuration for a guild.
type GuildConfig struct {
	// CategoryID is the ID of the category that holds the support channels and tickets.
	CategoryID Snowflake `json:"category_id" bson:"category_id"`

	// ChannelID is the ID of the public support channel that hosts the ticket creation panel.
	ChannelID Snowflake `json:"channel_id" bson:"channel_id"`

	// SettingsChannelID is the ID of the channel that hosts the settings panel. Nil until the panel is posted.
	SettingsChannelID *Snowflake `json:"settings_channel_id" bson:"settings_channel_id"`

	// SupportEnabled is whether new tickets can be created.
	SupportEnabled bool `json:"support_enabled" bson:"support_enabled"`

	// MaxTickets is the cap on concurrently open tickets.
	MaxTickets int `json:"max_tickets" bson:"max_tickets"`

	// ActiveTickets is keyed by ticket channel ID.
	ActiveTickets map[string]*TicketRecord `json:"active_tickets" bson:"active_tickets"`
}

// NewGuildConfig creates a guild configuration with the defaults.
func NewGuildConfig(categoryID, channelID string) *GuildConfig {
	return &GuildConfig{
		CategoryID:        Snowflake(categoryID),
		ChannelID:         Snowflake(channelID),
		SettingsChannelID: nil,
		SupportEnabled:    true,
		MaxTickets:        DefaultMaxTickets,
		ActiveTickets:     make(map[string]*TicketRecord),
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface. Keys missing from the document keep their defaults.
func (g *GuildConfig) UnmarshalJSON(b []byte) error {
	type plain GuildConfig
	p := plain(*NewGuildConfig("", ""))
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*g = GuildConfig(p)
	return nil
}

// AtCapacity reports whether no more tickets can be admitted.
func (g *GuildConfig) AtCapacity() bool {
	return len(g.ActiveTickets) >= g.MaxTickets
}

// Clone returns a deep copy of the guild configuration.
func (g *GuildConfig) Clone() *GuildConfig {
	if g == nil {
		return nil
	}

	out := *g
	if g.SettingsChannelID != nil {
		id := *g.SettingsChannelID
		out.SettingsChannelID = &id
	}

	out.ActiveTickets = make(map[string]*TicketRecord, len(g.ActiveTickets))
	for id, t := range g.ActiveTickets {
		out.ActiveTickets[id] = t.Clone()
	}
	return &out
}

// normalize fills in fields that older or hand-edited documents may be missing.
func (g *GuildConfig) normalize() {
	if g.ActiveTickets == nil {
		g.ActiveTickets = make(map[string]*TicketRecord)
	}
	g.MaxTickets = ClampMaxTickets(g.MaxTickets)
}

// Normalize prepares every guild in a freshly loaded document for use.
func (d Document) Normalize() {
	for id, g := range d {
		if g == nil {
			delete(d, id)
			continue
		}
		g.normalize()
	}
}
