package monitoring

import (
	"fmt"

	"github.com/Jacobbrewer1/supportbot/cmd/bot/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalDiscordEvents is the total number of events.
	TotalDiscordEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_total_discord_events", config.AppName),
			Help: "Total number of events",
		},
		[]string{"event"},
	)

	// HttpTotalRequests is the total number of http requests.
	HttpTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_http_total_requests", config.AppName),
			Help: "Total number of http requests",
		},
		[]string{"path", "method", "status_code"},
	)

	// HttpRequestDuration is the duration of the http request.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_http_request_duration", config.AppName),
			Help: "Duration of the http request",
		},
		[]string{"path", "method", "status_code"},
	)

	TotalDiscordGuilds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_total_discord_guilds", config.AppName),
			Help: "Total number of discord guilds",
		},
	)

	// InteractionsTotal is the total number of handled interactions by route and outcome.
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_interactions_total", config.AppName),
			Help: "Total number of handled interactions",
		},
		[]string{"route", "outcome"},
	)

	// InteractionDuration is the duration of an interaction handler.
	InteractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_interaction_duration", config.AppName),
			Help:    "Duration of the interaction handler",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route"},
	)

	// TicketsOpened is the total number of tickets opened.
	TicketsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_tickets_opened_total", config.AppName),
			Help: "Total number of tickets opened",
		},
		[]string{"category"},
	)

	// TicketsClaimed is the total number of tickets claimed.
	TicketsClaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_tickets_claimed_total", config.AppName),
			Help: "Total number of tickets claimed",
		},
	)

	// TicketsClosed is the total number of tickets closed, individually or in bulk.
	TicketsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_tickets_closed_total", config.AppName),
			Help: "Total number of tickets closed",
		},
		[]string{"reason"},
	)
)
