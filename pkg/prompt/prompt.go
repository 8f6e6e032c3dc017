package prompt

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

const (
	// ConfirmPrefix is the custom ID prefix of a confirm button.
	ConfirmPrefix = "confirm"

	// CancelPrefix is the custom ID prefix of a cancel button.
	CancelPrefix = "cancel"
)

var (
	// ErrTimeout is returned when nothing arrives before the wait expires.
	ErrTimeout = errors.New("prompt timed out")

	// ErrUnknownPrompt is returned when resolving a confirmation that is no longer awaited.
	ErrUnknownPrompt = errors.New("unknown prompt")

	// ErrNotYourPrompt is returned when someone other than the prompted user resolves a confirmation.
	ErrNotYourPrompt = errors.New("prompt belongs to another user")
)

// Waiter matches follow-up events to the handlers awaiting them.
type Waiter struct {
	mut sync.Mutex

	// messages are the pending message waits, keyed by channel and user.
	messages map[messageKey][]*MessageWait

	// confirmations are the pending confirmations, keyed by nonce.
	confirmations map[string]*Confirmation
}

type messageKey struct {
	channelID string
	userID    string
}

// NewWaiter creates a new waiter.
func NewWaiter() *Waiter {
	return &Waiter{
		messages:      make(map[messageKey][]*MessageWait),
		confirmations: make(map[string]*Confirmation),
	}
}

// MessageWait is a pending wait for the next message from a user in a channel.
type MessageWait struct {
	w   *Waiter
	key messageKey
	ch  chan *discordgo.Message
}

// ExpectMessage registers a wait for the next message by userID in channelID. Register before sending the prompt so
// that the reply cannot be missed, then call Wait.
func (w *Waiter) ExpectMessage(channelID, userID string) *MessageWait {
	mw := &MessageWait{
		w:   w,
		key: messageKey{channelID: channelID, userID: userID},
		ch:  make(chan *discordgo.Message, 1),
	}

	w.mut.Lock()
	defer w.mut.Unlock()
	w.messages[mw.key] = append(w.messages[mw.key], mw)
	return mw
}

// Wait blocks until the message arrives, the timeout expires or ctx is done. The wait is released either way.
func (mw *MessageWait) Wait(ctx context.Context, timeout time.Duration) (*discordgo.Message, error) {
	defer mw.Cancel()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case m := <-mw.ch:
		return m, nil
	case <-t.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel releases the wait. It is safe to call more than once.
func (mw *MessageWait) Cancel() {
	mw.w.mut.Lock()
	defer mw.w.mut.Unlock()

	waits := mw.w.messages[mw.key]
	for i, other := range waits {
		if other == mw {
			waits = append(waits[:i], waits[i+1:]...)
			break
		}
	}
	if len(waits) == 0 {
		delete(mw.w.messages, mw.key)
	} else {
		mw.w.messages[mw.key] = waits
	}
}

// Deliver hands a message to the oldest wait registered for its author and channel. It reports whether a wait
// consumed the message.
func (w *Waiter) Deliver(m *discordgo.Message) bool {
	if m == nil || m.Author == nil {
		return false
	}

	key := messageKey{channelID: m.ChannelID, userID: m.Author.ID}

	w.mut.Lock()
	defer w.mut.Unlock()

	waits := w.messages[key]
	if len(waits) == 0 {
		return false
	}

	mw := waits[0]
	if len(waits) == 1 {
		delete(w.messages, key)
	} else {
		w.messages[key] = waits[1:]
	}

	mw.ch <- m
	return true
}

// Confirmation is a pending confirm/cancel choice.
type Confirmation struct {
	w *Waiter

	// Nonce identifies the confirmation in button custom IDs.
	Nonce string

	// userID is the only user allowed to resolve the confirmation.
	userID string

	ch chan Choice
}

// Choice is the answer to a confirmation.
type Choice struct {
	// Confirmed is true when the confirm button was pressed.
	Confirmed bool

	// Interaction is the button press. It has not been responded to yet.
	Interaction *discordgo.Interaction
}

// ExpectConfirmation registers a confirmation that only userID may resolve.
func (w *Waiter) ExpectConfirmation(userID string) (*Confirmation, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}

	c := &Confirmation{
		w:      w,
		Nonce:  nonce,
		userID: userID,
		ch:     make(chan Choice, 1),
	}

	w.mut.Lock()
	defer w.mut.Unlock()
	w.confirmations[nonce] = c
	return c, nil
}

// ConfirmID is the custom ID of the confirm button.
func (c *Confirmation) ConfirmID() string {
	return ConfirmPrefix + ":" + c.Nonce
}

// CancelID is the custom ID of the cancel button.
func (c *Confirmation) CancelID() string {
	return CancelPrefix + ":" + c.Nonce
}

// Components are the confirm and cancel buttons.
func (c *Confirmation) Components() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Confirm",
					Style:    discordgo.SuccessButton,
					CustomID: c.ConfirmID(),
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.DangerButton,
					CustomID: c.CancelID(),
				},
			},
		},
	}
}

// Wait blocks until the confirmation is resolved, the timeout expires or ctx is done. The confirmation is released
// either way. The caller must respond to the interaction of the returned choice.
func (c *Confirmation) Wait(ctx context.Context, timeout time.Duration) (Choice, error) {
	defer c.Cancel()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case v := <-c.ch:
		return v, nil
	case <-t.C:
		return Choice{}, ErrTimeout
	case <-ctx.Done():
		return Choice{}, ctx.Err()
	}
}

// Cancel releases the confirmation. It is safe to call more than once.
func (c *Confirmation) Cancel() {
	c.w.mut.Lock()
	defer c.w.mut.Unlock()

	if c.w.confirmations[c.Nonce] == c {
		delete(c.w.confirmations, c.Nonce)
	}
}

// Resolve answers the confirmation identified by nonce with the button press i made by userID. On success the
// waiting flow owns the response to i.
func (w *Waiter) Resolve(nonce, userID string, confirmed bool, i *discordgo.Interaction) error {
	w.mut.Lock()
	defer w.mut.Unlock()

	c, ok := w.confirmations[nonce]
	if !ok {
		return ErrUnknownPrompt
	} else if c.userID != userID {
		return ErrNotYourPrompt
	}

	delete(w.confirmations, nonce)
	c.ch <- Choice{Confirmed: confirmed, Interaction: i}
	return nil
}

// ParseConfirmationID splits a confirm or cancel custom ID into its nonce and choice.
func ParseConfirmationID(customID string) (nonce string, confirmed bool, ok bool) {
	prefix, nonce, found := strings.Cut(customID, ":")
	if !found || nonce == "" {
		return "", false, false
	}

	switch prefix {
	case ConfirmPrefix:
		return nonce, true, true
	case CancelPrefix:
		return nonce, false, true
	default:
		return "", false, false
	}
}

func newNonce() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error generating nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
