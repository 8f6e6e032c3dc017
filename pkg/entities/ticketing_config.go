package entities

const (
	// MinMaxTickets is the lowest allowed ticket cap.
	MinMaxTickets = 1

	// DefaultMaxTickets is the default ticket cap, and also the highest allowed.
	DefaultMaxTickets = 50
)

// SettingsUpdate is a partial update of a guild's settings. Nil fields are left untouched.
type SettingsUpdate struct {
	// SettingsChannelID is the ID of the channel that hosts the settings panel.
	SettingsChannelID *string

	// SupportEnabled is whether new tickets can be created.
	SupportEnabled *bool

	// MaxTickets is the cap on concurrently open tickets. It is clamped to [MinMaxTickets, DefaultMaxTickets].
	MaxTickets *int
}

// Apply applies the update to the guild configuration.
func (u SettingsUpdate) Apply(g *GuildConfig) {
	if u.SettingsChannelID != nil {
		g.SettingsChannelID = SnowflakePtr(*u.SettingsChannelID)
	}
	if u.SupportEnabled != nil {
		g.SupportEnabled = *u.SupportEnabled
	}
	if u.MaxTickets != nil {
		g.MaxTickets = ClampMaxTickets(*u.MaxTickets)
	}
}

// ClampMaxTickets clamps n to [MinMaxTickets, DefaultMaxTickets].
func ClampMaxTickets(n int) int {
	return min(max(n, MinMaxTickets), DefaultMaxTickets)
}
