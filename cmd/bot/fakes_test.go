package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/cmd/bot/config"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/prompt"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID    = "10"
	testCategoryID = "20"
	testChannelID  = "30"
	testBotID      = "1"
)

type response struct {
	interaction *discordgo.Interaction
	resp        *discordgo.InteractionResponse
}

type followup struct {
	interaction *discordgo.Interaction
	params      *discordgo.WebhookParams
}

type sentMessage struct {
	channelID string
	msg       *discordgo.MessageSend
}

// fakePlatform records every call. The on* hooks run after a call is recorded and stand in for the user.
type fakePlatform struct {
	mut sync.Mutex

	nextID int

	responses       []response
	followups       []followup
	sent            []sentMessage
	deletedMessages []string
	created         []discordgo.GuildChannelCreateData
	channels        map[string]*discordgo.Channel
	deletedChannels []string
	roles           []*discordgo.Role
	createdRoles    []string
	permissions     map[string]int64

	// failDeletes are channel IDs whose deletion fails.
	failDeletes map[string]bool

	onRespond  func(i *discordgo.Interaction, resp *discordgo.InteractionResponse)
	onFollowup func(i *discordgo.Interaction, params *discordgo.WebhookParams)
	onSend     func(channelID string, msg *discordgo.MessageSend)
}

var _ discord.Platform = (*fakePlatform)(nil)

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		nextID:      100,
		channels:    make(map[string]*discordgo.Channel),
		permissions: make(map[string]int64),
		failDeletes: make(map[string]bool),
	}
}

func (p *fakePlatform) id() string {
	p.nextID++
	return fmt.Sprintf("%d", p.nextID)
}

func (p *fakePlatform) BotUserID() string {
	return testBotID
}

func (p *fakePlatform) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	p.mut.Lock()
	p.responses = append(p.responses, response{interaction: i, resp: resp})
	hook := p.onRespond
	p.mut.Unlock()

	if hook != nil {
		hook(i, resp)
	}
	return nil
}

func (p *fakePlatform) Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	p.mut.Lock()
	p.followups = append(p.followups, followup{interaction: i, params: params})
	msg := &discordgo.Message{ID: p.id(), ChannelID: i.ChannelID, Content: params.Content}
	hook := p.onFollowup
	p.mut.Unlock()

	if hook != nil {
		hook(i, params)
	}
	return msg, nil
}

func (p *fakePlatform) SendMessage(channelID string, send *discordgo.MessageSend) (*discordgo.Message, error) {
	p.mut.Lock()
	p.sent = append(p.sent, sentMessage{channelID: channelID, msg: send})
	msg := &discordgo.Message{ID: p.id(), ChannelID: channelID, Content: send.Content}
	hook := p.onSend
	p.mut.Unlock()

	if hook != nil {
		hook(channelID, send)
	}
	return msg, nil
}

func (p *fakePlatform) DeleteMessage(channelID, messageID string) error {
	p.mut.Lock()
	defer p.mut.Unlock()
	p.deletedMessages = append(p.deletedMessages, messageID)
	return nil
}

func (p *fakePlatform) Channel(channelID string) (*discordgo.Channel, error) {
	p.mut.Lock()
	defer p.mut.Unlock()

	c, ok := p.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, discord.ErrNotFound)
	}
	return c, nil
}

func (p *fakePlatform) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	p.mut.Lock()
	defer p.mut.Unlock()

	out := make([]*discordgo.Channel, 0, len(p.channels))
	for _, c := range p.channels {
		if c.GuildID == guildID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *fakePlatform) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	p.mut.Lock()
	defer p.mut.Unlock()

	c := &discordgo.Channel{
		ID:       p.id(),
		GuildID:  guildID,
		Name:     data.Name,
		Type:     data.Type,
		ParentID: data.ParentID,
	}
	p.created = append(p.created, data)
	p.channels[c.ID] = c
	return c, nil
}

func (p *fakePlatform) DeleteChannel(channelID string) error {
	p.mut.Lock()
	defer p.mut.Unlock()

	if p.failDeletes[channelID] {
		return fmt.Errorf("error deleting channel %s: missing access", channelID)
	}
	if _, ok := p.channels[channelID]; !ok {
		return fmt.Errorf("channel %s: %w", channelID, discord.ErrNotFound)
	}

	delete(p.channels, channelID)
	p.deletedChannels = append(p.deletedChannels, channelID)
	return nil
}

func (p *fakePlatform) GuildRoles(string) ([]*discordgo.Role, error) {
	p.mut.Lock()
	defer p.mut.Unlock()
	return append([]*discordgo.Role(nil), p.roles...), nil
}

func (p *fakePlatform) CreateRole(_, name string, permissions int64) (*discordgo.Role, error) {
	p.mut.Lock()
	defer p.mut.Unlock()

	r := &discordgo.Role{ID: p.id(), Name: name, Permissions: permissions}
	p.roles = append(p.roles, r)
	p.createdRoles = append(p.createdRoles, name)
	return r, nil
}

func (p *fakePlatform) MemberPermissions(_, userID string) (int64, error) {
	p.mut.Lock()
	defer p.mut.Unlock()
	return p.permissions[userID], nil
}

// addChannel puts an existing channel in the guild.
func (p *fakePlatform) addChannel(id, parentID string) {
	p.mut.Lock()
	defer p.mut.Unlock()
	p.channels[id] = &discordgo.Channel{ID: id, GuildID: testGuildID, ParentID: parentID}
}

// lastResponse is the most recent interaction response.
func (p *fakePlatform) lastResponse(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	p.mut.Lock()
	defer p.mut.Unlock()
	require.NotEmpty(t, p.responses, "no interaction response")
	return p.responses[len(p.responses)-1].resp
}

// lastFollowup is the most recent follow-up message.
func (p *fakePlatform) lastFollowup(t *testing.T) *discordgo.WebhookParams {
	t.Helper()
	p.mut.Lock()
	defer p.mut.Unlock()
	require.NotEmpty(t, p.followups, "no follow-up")
	return p.followups[len(p.followups)-1].params
}

// contents are the contents of every response, follow-up and sent message, in order of kind.
func (p *fakePlatform) contents() []string {
	p.mut.Lock()
	defer p.mut.Unlock()

	var out []string
	for _, r := range p.responses {
		if r.resp.Data != nil {
			out = append(out, r.resp.Data.Content)
		}
	}
	for _, f := range p.followups {
		out = append(out, f.params.Content)
	}
	for _, s := range p.sent {
		out = append(out, s.msg.Content)
	}
	return out
}

// fakeApp is the IApp the handlers run against in tests. The store is a real store over a file in a temp dir.
type fakeApp struct {
	l        *slog.Logger
	platform *fakePlatform
	store    dataaccess.GuildStore
	backend  *dataaccess.FileBackend
	waiter   *prompt.Waiter
	timings  config.Timings
}

var _ IApp = (*fakeApp)(nil)

func newFakeApp(t *testing.T) *fakeApp {
	t.Helper()

	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	backend := dataaccess.NewFileBackend(filepath.Join(t.TempDir(), "server_data.json"))

	store, err := dataaccess.NewGuildStore(context.Background(), l, backend)
	require.NoError(t, err)

	return &fakeApp{
		l:        l,
		platform: newFakePlatform(),
		store:    store,
		backend:  backend,
		waiter:   prompt.NewWaiter(),
		timings: config.Timings{
			PromptTimeout: 2 * time.Second,
			CloseDelay:    0,
			DeletePace:    0,
		},
	}
}

func (a *fakeApp) Log() *slog.Logger            { return a.l }
func (a *fakeApp) Platform() discord.Platform   { return a.platform }
func (a *fakeApp) Store() dataaccess.GuildStore { return a.store }
func (a *fakeApp) Prompts() *prompt.Waiter      { return a.waiter }
func (a *fakeApp) Timings() config.Timings      { return a.timings }
func (a *fakeApp) CommandPrefix() string        { return ";" }

// setupGuild stores a configured guild with support channel testChannelID under testCategoryID.
func (a *fakeApp) setupGuild(t *testing.T) {
	t.Helper()
	require.NoError(t, a.store.AddGuild(context.Background(), testGuildID, testCategoryID, testChannelID))
}

func member(id, username string, permissions int64, roles ...string) *discordgo.Member {
	return &discordgo.Member{
		User:        &discordgo.User{ID: id, Username: username},
		Roles:       roles,
		Permissions: permissions,
	}
}

var interactionSeq int

func componentInteraction(channelID, customID string, m *discordgo.Member, values ...string) *discordgo.InteractionCreate {
	interactionSeq++
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:        fmt.Sprintf("interaction-%d", interactionSeq),
			Type:      discordgo.InteractionMessageComponent,
			GuildID:   testGuildID,
			ChannelID: channelID,
			Member:    m,
			Message: &discordgo.Message{
				ID:        "panel",
				ChannelID: channelID,
				Embeds:    []*discordgo.MessageEmbed{{Title: "Ticket #ABC123"}},
			},
			Data: discordgo.MessageComponentInteractionData{
				CustomID: customID,
				Values:   values,
			},
		},
	}
}

func commandInteraction(channelID, name string, m *discordgo.Member) *discordgo.InteractionCreate {
	interactionSeq++
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:        fmt.Sprintf("interaction-%d", interactionSeq),
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID,
			ChannelID: channelID,
			Member:    m,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: name,
			},
		},
	}
}

// buttons flattens the buttons of a set of components.
func buttons(components []discordgo.MessageComponent) []discordgo.Button {
	var out []discordgo.Button
	for _, c := range components {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if b, ok := inner.(discordgo.Button); ok {
				out = append(out, b)
			}
		}
	}
	return out
}

// pressConfirmation resolves the confirmation found in components as userID, as if the button had been pressed.
func pressConfirmation(t *testing.T, a *fakeApp, components []discordgo.MessageComponent, userID string, confirm bool) bool {
	t.Helper()

	for _, b := range buttons(components) {
		nonce, confirmed, ok := prompt.ParseConfirmationID(b.CustomID)
		if !ok || confirmed != confirm {
			continue
		}

		press := componentInteraction(testChannelID, b.CustomID, member(userID, "presser", 0))
		require.NoError(t, a.waiter.Resolve(nonce, userID, confirm, press.Interaction))
		return true
	}
	return false
}

// reply delivers a message from userID to a pending prompt.
func reply(a *fakeApp, channelID, userID, content string) bool {
	return a.waiter.Deliver(&discordgo.Message{
		ID:        "reply-" + strings.ReplaceAll(content, " ", "_"),
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: userID},
	})
}
