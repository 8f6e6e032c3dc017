package entities

import (
	"github.com/Jacobbrewer1/supportbot/pkg/custom"
)

// TicketRecord is an open ticket.
type TicketRecord struct {
	// UserID is the ID of the user that opened the ticket.
	UserID Snowflake `json:"user_id" bson:"user_id"`

	// ClaimedBy is the ID of the staff member that claimed the ticket. Nil until claimed.
	ClaimedBy *Snowflake `json:"claimed_by" bson:"claimed_by"`

	// Category is the label of the support category picked when the ticket was opened.
	Category string `json:"category,omitempty" bson:"category,omitempty"`

	// CreatedAt is the time that the ticket was opened.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// IsClaimed reports whether a staff member has claimed the ticket.
func (t *TicketRecord) IsClaimed() bool {
	return t.ClaimedBy != nil && *t.ClaimedBy != ""
}

// Clone returns a deep copy of the ticket.
func (t *TicketRecord) Clone() *TicketRecord {
	if t == nil {
		return nil
	}

	out := *t
	if t.ClaimedBy != nil {
		id := *t.ClaimedBy
		out.ClaimedBy = &id
	}
	return &out
}
