package discord

import (
	"slices"

	"github.com/Jacobbrewer1/discordgo"
)

// IsAdministrator reports whether the permission set includes administrator.
func IsAdministrator(perms int64) bool {
	return perms&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator
}

// HasRole reports whether the member holds the role.
func HasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	return slices.Contains(member.Roles, roleID)
}

// FindRoleByName returns the first role with the given name.
func FindRoleByName(roles []*discordgo.Role, name string) *discordgo.Role {
	for _, r := range roles {
		if r != nil && r.Name == name {
			return r
		}
	}
	return nil
}

// InteractionUser returns the user behind an interaction, whether it came from a guild or a DM.
func InteractionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// ChannelMention formats a channel mention.
func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}

// UserMention formats a user mention.
func UserMention(userID string) string {
	return "<@" + userID + ">"
}
