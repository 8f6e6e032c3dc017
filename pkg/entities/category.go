package entities

import "strings"

// SupportCategory is one of the fixed options of the ticket category select menu.
type SupportCategory struct {
	Label       string
	Description string
}

// Slug is the label in lowercase with spaces replaced by hyphens. It is used in ticket channel names and custom IDs.
func (c SupportCategory) Slug() string {
	return strings.ReplaceAll(strings.ToLower(c.Label), " ", "-")
}

// SupportCategories are the categories a member can open a ticket for.
var SupportCategories = []SupportCategory{
	{Label: "TikTok Live Support", Description: "Get help with TikTok Live issues"},
	{Label: "Discord Support", Description: "Get help with Discord related issues"},
	{Label: "Minecraft Support", Description: "Get help with Minecraft related issues"},
	{Label: "Other Support", Description: "Get help with other issues"},
}

// CategoryBySlug finds a support category by its slug.
func CategoryBySlug(slug string) (SupportCategory, bool) {
	for _, c := range SupportCategories {
		if c.Slug() == slug {
			return c, true
		}
	}
	return SupportCategory{}, false
}

// CategoryByLabel finds a support category by its label.
func CategoryByLabel(label string) (SupportCategory, bool) {
	for _, c := range SupportCategories {
		if c.Label == label {
			return c, true
		}
	}
	return SupportCategory{}, false
}
