package stream

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Stats accumulates one stream's activity between StartStream and StopStream.
// Not safe for concurrent use.
type Stats struct {
	started time.Time
	online  struct {
		maxViewers int
		sumViewers int64
		count      int
	}
	countMessages map[string]int
	countCommands map[string]int

	categoryHistory []CategoryInterval
}

type CategoryInterval struct {
	Name      string     `json:"name"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type ChatterCount struct {
	Username string `json:"username"`
	Messages int    `json:"messages"`
}

type Summary struct {
	Started        time.Time          `json:"started"`
	Duration       time.Duration      `json:"duration"`
	AvgViewers     int                `json:"avg_viewers"`
	MaxViewers     int                `json:"max_viewers"`
	Messages       int                `json:"messages"`
	Chatters       int                `json:"chatters"`
	MessagesPerSec float64            `json:"messages_per_sec"`
	Commands       map[string]int     `json:"commands"`
	TopChatters    []ChatterCount     `json:"top_chatters"`
	Categories     []CategoryInterval `json:"categories"`
}

func NewStats() *Stats {
	return &Stats{
		countMessages: make(map[string]int),
		countCommands: make(map[string]int),
	}
}

// Start resets every counter.
func (s *Stats) Start(t time.Time) {
	*s = *NewStats()
	s.started = t
}

func (s *Stats) Running() bool {
	return !s.started.IsZero()
}

func (s *Stats) SetOnline(viewers int) {
	if viewers <= 0 {
		return
	}

	if viewers > s.online.maxViewers {
		s.online.maxViewers = viewers
	}
	s.online.sumViewers += int64(viewers)
	s.online.count++
}

func (s *Stats) AddMessage(username string) {
	if !s.Running() {
		return
	}
	s.countMessages[strings.ToLower(username)]++
}

func (s *Stats) AddCommand(name string) {
	if !s.Running() {
		return
	}
	s.countCommands[name]++
}

// AddCategoryChange records a new category; repeating the current one is a no-op.
func (s *Stats) AddCategoryChange(category string, t time.Time) {
	if category == "" {
		return
	}

	n := len(s.categoryHistory)
	if n > 0 {
		if s.categoryHistory[n-1].Name == category {
			return
		}
		end := t
		s.categoryHistory[n-1].EndTime = &end
	}

	s.categoryHistory = append(s.categoryHistory, CategoryInterval{
		Name:      category,
		StartTime: t,
	})
}

func (s *Stats) UserMessages(username string) int {
	return s.countMessages[strings.ToLower(username)]
}

// Summary reports the stream up to now with the top chatters by message count.
func (s *Stats) Summary(now time.Time, top int) Summary {
	sum := Summary{
		Started:    s.started,
		MaxViewers: s.online.maxViewers,
		Chatters:   len(s.countMessages),
		Commands:   make(map[string]int, len(s.countCommands)),
		Categories: append([]CategoryInterval(nil), s.categoryHistory...),
	}
	if !s.Running() {
		return sum
	}

	sum.Duration = now.Sub(s.started)
	if s.online.count > 0 {
		sum.AvgViewers = int(math.Round(float64(s.online.sumViewers) / float64(s.online.count)))
	}
	for _, v := range s.countMessages {
		sum.Messages += v
	}
	if secs := sum.Duration.Seconds(); secs > 0 {
		sum.MessagesPerSec = math.Round(float64(sum.Messages)/secs*10) / 10
	}
	for k, v := range s.countCommands {
		sum.Commands[k] = v
	}

	list := make([]ChatterCount, 0, len(s.countMessages))
	for k, v := range s.countMessages {
		list = append(list, ChatterCount{Username: k, Messages: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Messages == list[j].Messages {
			return list[i].Username < list[j].Username
		}
		return list[i].Messages > list[j].Messages
	})
	if len(list) > top {
		list = list[:top]
	}
	sum.TopChatters = list

	return sum
}
