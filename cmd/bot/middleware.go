package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
	"github.com/Jacobbrewer1/supportbot/pkg/request"
	"github.com/gorilla/mux"
)

// commandProcessor is the processor for slash commands and message components.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate) error

// textCommandProcessor is the processor for prefixed text commands.
type textCommandProcessor func(a IApp, m *discordgo.MessageCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(a IApp, handler Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// The status code is only known once the handler has returned.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler routes slash commands by name and message components by the part of the custom ID before the
// first ':'.
func interactionHandler(a IApp, commands map[string]commandProcessor, components map[string]commandProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteraction(a, commands, components, i)
	}
}

func handleInteraction(a IApp, commands map[string]commandProcessor, components map[string]commandProcessor, i *discordgo.InteractionCreate) {
	var (
		route     string
		processor commandProcessor
		ok        bool
		attrs     []any
	)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		route = i.ApplicationCommandData().Name
		processor, ok = commands[route]
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		route, _, _ = strings.Cut(customID, ":")
		processor, ok = components[route]
		attrs = append(attrs, slog.String(logging.KeyCustomID, customID))
	default:
		return
	}

	l := a.Log().With(append([]any{
		slog.String("route", route),
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyChannelID, i.ChannelID),
	}, attrs...)...)

	if !ok {
		l.Warn("No processor found for interaction")
		monitoring.InteractionsTotal.WithLabelValues(route, "unrouted").Inc()
		if err := respondSlashError(a, i); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	tracked := newTrackedApp(a, i.Interaction)

	runProcessor(l, route, func() error {
		return processor(tracked, i)
	}, func() error {
		// Discord only accepts one initial response per interaction.
		if tracked.platform.acknowledged.Load() {
			return followupEphemeral(a, i.Interaction, msgErrorProcessing)
		}
		return respondSlashError(a, i)
	})
}

// trackedApp hands processors a platform that records whether the interaction being processed has been responded to.
type trackedApp struct {
	IApp
	platform *trackedPlatform
}

func newTrackedApp(a IApp, i *discordgo.Interaction) *trackedApp {
	return &trackedApp{
		IApp: a,
		platform: &trackedPlatform{
			Platform:    a.Platform(),
			interaction: i,
		},
	}
}

func (a *trackedApp) Platform() discord.Platform {
	return a.platform
}

type trackedPlatform struct {
	discord.Platform

	// interaction is the interaction being processed. Responses to other interactions, such as confirmation
	// presses, are not tracked.
	interaction  *discordgo.Interaction
	acknowledged atomic.Bool
}

func (p *trackedPlatform) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	err := p.Platform.Respond(i, resp)
	if err == nil && i == p.interaction {
		p.acknowledged.Store(true)
	}
	return err
}

// runProcessor runs a processor, recording its duration and outcome. Errors and panics are logged, and onError is
// used to tell the user something went wrong.
func runProcessor(l *slog.Logger, route string, process func() error, onError func() error) {
	t := time.Now()
	outcome := "ok"

	defer func() {
		if rec := recover(); rec != nil {
			outcome = "panic"
			l.Error("Panic in processor",
				slog.String(logging.KeyError, fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
			if err := onError(); err != nil {
				l.Error("Error responding to user", slog.String(logging.KeyError, err.Error()))
			}
		}

		monitoring.InteractionDuration.WithLabelValues(route).Observe(time.Since(t).Seconds())
		monitoring.InteractionsTotal.WithLabelValues(route, outcome).Inc()
	}()

	if err := process(); err != nil {
		outcome = "error"
		l.Error("Error processing "+route, slog.String(logging.KeyError, err.Error()))

		if err := onError(); err != nil {
			l.Error("Error responding to user", slog.String(logging.KeyError, err.Error()))
		}
	}
}

// messageCreateHandler hands messages to pending prompts, filters the support channel and runs text commands.
func messageCreateHandler(a IApp, commands map[string]textCommandProcessor) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		handleMessage(a, commands, m)
	}
}

func handleMessage(a IApp, commands map[string]textCommandProcessor, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == a.Platform().BotUserID() {
		return
	}

	// The support channel is filtered once the message has been handled, so a command used there still runs.
	defer filterSupportChannel(a, m)

	if m.Author.Bot {
		return
	}

	if a.Prompts().Deliver(m.Message) {
		return
	}

	name, ok := parseTextCommand(a.CommandPrefix(), m.Content)
	if !ok {
		return
	}

	processor, ok := commands[name]
	if !ok {
		return
	}

	l := a.Log().With(
		slog.String("route", name),
		slog.String(logging.KeyGuildID, m.GuildID),
		slog.String(logging.KeyChannelID, m.ChannelID),
	)

	runProcessor(l, name, func() error {
		return processor(a, m)
	}, func() error {
		_, err := a.Platform().SendMessage(m.ChannelID, &discordgo.MessageSend{Content: msgErrorProcessing})
		return err
	})
}

// parseTextCommand returns the command name of a prefixed message such as ";setupsupport".
func parseTextCommand(prefix, content string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", false
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}
