package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"metacity/internal/app/adapters/metrics"
	"metacity/internal/app/adapters/platform/twitch/api"
	"metacity/internal/app/domain/stream"
	"metacity/internal/app/ports"
	"strings"
	"time"
)

const recapTopChatters = 3

func (s *Session) StartStream() error {
	var err error
	doErr := s.do(func() {
		if s.user == nil {
			err = ErrNotAuthenticated
			return
		}
		if s.streaming {
			return
		}

		s.streaming = true
		s.streamGen++
		s.recap.Start(s.clock.Now())
		s.lastRecap = nil
		s.ticker = s.clock.NewTicker(s.cfg.Stats.PollInterval())
		metrics.StreamActive.WithLabelValues(s.user.Login).Set(1)

		s.publish(ports.Event{
			Type:    ports.EventStreamStarted,
			Title:   "🎥 Stream Started",
			Message: "MetaCity stream is now live! Viewers can interact with your city.",
		})
		s.pollStats()
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (s *Session) StopStream() error {
	return s.do(func() { s.stopStream(true) })
}

func (s *Session) stopStream(announce bool) {
	if !s.streaming {
		return
	}

	s.streaming = false
	s.streamGen++
	s.stats = nil
	s.stopTicker()

	recap := s.recap.Summary(s.clock.Now(), recapTopChatters)
	s.lastRecap = &recap
	if login := s.login(); login != "" {
		metrics.StreamActive.WithLabelValues(login).Set(0)
		metrics.OnlineViewers.WithLabelValues(login).Set(0)
	}

	if announce {
		s.publish(ports.Event{
			Type:    ports.EventStreamStopped,
			Title:   "📴 Stream Ended",
			Message: "MetaCity stream has ended. Thanks for streaming!",
			Data:    recap,
		})
		s.sayOrLog(recapLine(recap))
	}
}

func recapLine(r stream.Summary) string {
	line := fmt.Sprintf("📈 Stream recap: %s live • peak %d viewers • %d messages from %d chatters",
		r.Duration.Truncate(time.Second), r.MaxViewers, r.Messages, r.Chatters)
	if len(r.TopChatters) == 0 {
		return line
	}

	top := make([]string, 0, len(r.TopChatters))
	for _, c := range r.TopChatters {
		top = append(top, fmt.Sprintf("%s (%d)", c.Username, c.Messages))
	}
	return line + " • top chatters: " + strings.Join(top, ", ")
}

func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// pollStats fetches stream info off the session goroutine; stale answers are dropped.
func (s *Session) pollStats() {
	if !s.streaming || s.user == nil {
		return
	}

	login, gen := s.user.Login, s.streamGen
	s.offload(func(ctx context.Context) {
		stats, err := s.api.StreamInfo(ctx, login)
		s.post(func() { s.applyStats(gen, login, stats, err) })
	})
}

func (s *Session) applyStats(gen uint64, login string, stats *ports.StreamStats, err error) {
	if gen != s.streamGen || !s.streaming {
		return
	}

	if err != nil {
		if errors.Is(err, api.ErrUserAuthNotCompleted) {
			s.logout("Twitch session expired. Please log in again.")
			return
		}
		s.log.Warn("Failed to fetch stream stats", slog.String("login", login), slog.Any("error", err))
		return
	}

	s.stats = stats
	s.recap.SetOnline(stats.ViewerCount)
	s.recap.AddCategoryChange(stats.GameName, s.clock.Now())
	metrics.OnlineViewers.WithLabelValues(login).Set(float64(stats.ViewerCount))
	s.publish(ports.Event{Type: ports.EventStreamStats, Data: stats})
}
