package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatState - chat connection state as a ports.ConnState value.
	ChatState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metacity_chat_state",
		Help: "Chat connection state: 0 disconnected, 1 connecting, 2 connected, 3 reconnecting, 4 logged out",
	})

	// ChatReconnects - dropped connections that went into the retry path.
	ChatReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metacity_chat_reconnects_total",
		Help: "Total number of chat disconnects followed by a reconnect attempt",
	})

	// StreamActive - whether a stream session is running.
	StreamActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metacity_stream_active",
			Help: "Whether the streaming session is active",
		},
		[]string{"channel"},
	)

	// OnlineViewers - viewers per channel.
	OnlineViewers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metacity_online_viewers",
			Help: "Current number of online viewers per channel",
		},
		[]string{"channel"},
	)

	// ChatMessages - chat messages per channel.
	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacity_chat_messages_total",
			Help: "Total number of chat messages per channel",
		},
		[]string{"channel"},
	)

	// UserCommands - chat command calls.
	UserCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacity_user_commands_total",
			Help: "Total number of chat commands per command",
		},
		[]string{"command"},
	)

	// Votes - accepted votes per choice.
	Votes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacity_votes_total",
			Help: "Total number of accepted votes per choice",
		},
		[]string{"choice"},
	)

	// ProposalOutcomes - closed proposals per outcome.
	ProposalOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metacity_proposal_outcomes_total",
			Help: "Total number of closed proposals per outcome",
		},
		[]string{"outcome"},
	)

	// PendingRewards - unclaimed streamer rewards.
	PendingRewards = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metacity_pending_rewards",
		Help: "Unclaimed reward total of the logged in streamer",
	})

	// CommandProcessingTime - command handling latency.
	CommandProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metacity_command_processing_milliseconds",
			Help:    "Time to process a chat command",
			Buckets: prometheus.ExponentialBuckets(0.00005, 1.5, 25),
		},
	)
)
