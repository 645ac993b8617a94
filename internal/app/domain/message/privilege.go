package message

type Tier int

const (
	Viewer Tier = iota
	Subscriber
	Moderator
	Broadcaster
)

var tierNames = map[Tier]string{
	Viewer:      "viewer",
	Subscriber:  "subscriber",
	Moderator:   "moderator",
	Broadcaster: "broadcaster",
}

func (t Tier) String() string {
	return tierNames[t]
}

// Tier picks the highest privilege; badges never stack.
func (c Chatter) Tier() Tier {
	switch {
	case c.IsBroadcaster:
		return Broadcaster
	case c.IsModerator:
		return Moderator
	case c.IsSubscriber:
		return Subscriber
	default:
		return Viewer
	}
}

func (c Chatter) Weight() int {
	switch c.Tier() {
	case Broadcaster:
		return 10
	case Moderator:
		return 5
	case Subscriber:
		return 2
	default:
		return 1
	}
}

// Privileged is true for anyone allowed to run city commands.
func (c Chatter) Privileged() bool {
	return c.Tier() >= Subscriber
}

func (c Chatter) CanModerate() bool {
	return c.Tier() >= Moderator
}
