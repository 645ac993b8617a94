package ports

import "time"

type EventType string

const (
	EventAuthenticated     EventType = "authenticated"
	EventAuthError         EventType = "auth_error"
	EventLoggedOut         EventType = "logout"
	EventChatConnected     EventType = "chat_connected"
	EventChatDisconnected  EventType = "chat_disconnected"
	EventReconnectFailed   EventType = "chat_reconnect_failed"
	EventChatMessage       EventType = "chat_message"
	EventChatCommand       EventType = "chat_command"
	EventVoteRecorded      EventType = "vote_recorded"
	EventProposalCreated   EventType = "proposal_created"
	EventProposalClosed    EventType = "proposal_closed"
	EventBuildRequested    EventType = "build_requested"
	EventUpgradeRequested  EventType = "upgrade_requested"
	EventDemolishRequested EventType = "demolish_requested"
	EventRequestDecided    EventType = "city_request_decided"
	EventRewardCredited    EventType = "reward_credited"
	EventRewardsClaimed    EventType = "rewards_claimed"
	EventNoRewards         EventType = "no_rewards"
	EventStreamStarted     EventType = "stream_started"
	EventStreamStopped     EventType = "stream_stopped"
	EventStreamStats       EventType = "stream_stats"
)

// Event is what the dashboard gets pushed; Title and Message are display text.
type Event struct {
	Type    EventType `json:"type"`
	Time    time.Time `json:"time"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

type EventListener func(Event)
