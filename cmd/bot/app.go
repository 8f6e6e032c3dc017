package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/supportbot/cmd/bot/config"
	"github.com/Jacobbrewer1/supportbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/supportbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/supportbot/pkg/discord"
	"github.com/Jacobbrewer1/supportbot/pkg/logging"
	"github.com/Jacobbrewer1/supportbot/pkg/prompt"
	"github.com/Jacobbrewer1/supportbot/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Platform returns the Discord operations used by the handlers.
	Platform() discord.Platform

	// Store returns the guild store.
	Store() dataaccess.GuildStore

	// Prompts returns the waiter for follow-up replies and confirmations.
	Prompts() *prompt.Waiter

	// Timings returns the waits of the support workflow.
	Timings() config.Timings

	// CommandPrefix returns the prefix of text commands.
	CommandPrefix() string
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// cfg is the configuration.
	cfg *config.Config

	// s is the discord session.
	s *discordgo.Session

	// platform wraps the session for the handlers.
	platform discord.Platform

	// store is the guild store.
	store dataaccess.GuildStore

	// waiter matches follow-up events to the flows awaiting them.
	waiter *prompt.Waiter

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// commandsMut guards commands.
	commandsMut sync.Mutex

	// commands are the IDs of the registered slash commands, keyed by guild ID.
	commands map[string][]string
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router, cfg *config.Config, store dataaccess.GuildStore, waiter *prompt.Waiter) *App {
	return &App{
		Logger:   l,
		r:        r,
		cfg:      cfg,
		store:    store,
		waiter:   waiter,
		commands: make(map[string][]string),
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s", r.User.Username), slog.Int("guilds", len(r.Guilds)))
	})

	a.RegisterDiscordHandlers()

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.", slog.Any("config", a.cfg))

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	sig := <-c
	a.Info("Received shutdown signal", slog.String("signal", sig.String()))
	if err := a.ShutdownHook(); err != nil {
		return fmt.Errorf("error shutting down application: %w", err)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		errs = append(errs, fmt.Errorf("error unregistering slash commands: %w", err))
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}

	if err := a.svr.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down monitoring server: %w", err))
	}

	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error closing store: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + a.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	a.platform = discord.NewPlatform(dg)
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a, a.healthCheck())).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:              ":" + a.cfg.MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) RegisterDiscordHandlers() {
	// Bot joined guild. Also fired for every guild once the gateway connects.
	a.s.AddHandler(a.guildJoinedHandler())

	// Bot left guild.
	a.s.AddHandler(a.guildLeaveHandler())

	a.s.AddHandler(interactionHandler(a, slashCommands(), componentRoutes()))
	a.s.AddHandler(messageCreateHandler(a, textCommands()))
}

// slashCommands are the processors of the slash commands, keyed by command name.
func slashCommands() map[string]commandProcessor {
	return map[string]commandProcessor{
		setupCmd.Name: setupSlashCommand,
	}
}

// textCommands are the processors of the prefixed text commands, keyed by command name.
func textCommands() map[string]textCommandProcessor {
	return map[string]textCommandProcessor{
		setupCmd.Name: setupTextCommand,
	}
}

// componentRoutes are the processors of every component the bot posts, keyed by the custom ID prefix. Panels posted
// before a restart stay interactive as long as their custom IDs are routed here.
func componentRoutes() map[string]commandProcessor {
	return map[string]commandProcessor{
		CategorySelectID:      selectCategoryHandler,
		CreateTicketButtonID:  createTicketHandler,
		ClaimTicketButtonID:   claimTicketHandler,
		CloseTicketButtonID:   closeTicketHandler,
		ToggleSupportButtonID: toggleSupportHandler,
		MaxTicketsButtonID:    maxTicketsHandler,
		DeleteAllButtonID:     deleteAllTicketsHandler,
		prompt.ConfirmPrefix:  confirmationHandler,
		prompt.CancelPrefix:   confirmationHandler,
	}
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

// registerSlashCommands registers the slash commands for a guild.
func (a *App) registerSlashCommands(guildID string) error {
	cmd, err := a.s.ApplicationCommandCreate(a.cfg.ApplicationId, guildID, setupCmd)
	if err != nil {
		return fmt.Errorf("error creating setup command for guild %s: %w", guildID, err)
	}

	a.commandsMut.Lock()
	defer a.commandsMut.Unlock()
	a.commands[guildID] = []string{cmd.ID}
	return nil
}

// unregisterSlashCommands removes the slash commands from every guild they were registered in.
func (a *App) unregisterSlashCommands() error {
	a.commandsMut.Lock()
	defer a.commandsMut.Unlock()

	var errs []error
	for guildID, ids := range a.commands {
		for _, id := range ids {
			if err := a.s.ApplicationCommandDelete(a.cfg.ApplicationId, guildID, id); err != nil {
				errs = append(errs, fmt.Errorf("error deleting command %s for guild %s: %w", id, guildID, err))
			}
		}
		delete(a.commands, guildID)
	}
	return errors.Join(errs...)
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Platform() discord.Platform {
	return a.platform
}

func (a *App) Store() dataaccess.GuildStore {
	return a.store
}

func (a *App) Prompts() *prompt.Waiter {
	return a.waiter
}

func (a *App) Timings() config.Timings {
	return a.cfg.Timings
}

func (a *App) CommandPrefix() string {
	return a.cfg.CommandPrefix
}
