package config

import (
	"errors"
	"fmt"
	"net/url"
)

func (m *Manager) validate(cfg *Config) error {
	// app
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}
	if cfg.App.Addr == "" {
		return errors.New("app.addr is required")
	}

	if cfg.Proxy != nil && cfg.Proxy.Address != "" && (cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535) {
		return errors.New("proxy.port must be [1,65535]")
	}

	// twitch
	for name, raw := range map[string]string{
		"twitch.chat_url":  cfg.Twitch.ChatURL,
		"twitch.auth_url":  cfg.Twitch.AuthURL,
		"twitch.helix_url": cfg.Twitch.HelixURL,
	} {
		if raw == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	// chat
	if cfg.Chat.MessageBuffer < 1 || cfg.Chat.MessageBuffer > 1000 {
		return errors.New("chat.message_buffer must be [1,1000]")
	}
	if cfg.Chat.CommandBuffer < 1 || cfg.Chat.CommandBuffer > 1000 {
		return errors.New("chat.command_buffer must be [1,1000]")
	}
	if cfg.Chat.MaxMessageLength < 1 || cfg.Chat.MaxMessageLength > 500 {
		return errors.New("chat.max_message_length must be [1,500]")
	}
	if (cfg.Chat.Limiter.Requests != 0 && cfg.Chat.Limiter.PerSecs == 0) || (cfg.Chat.Limiter.Requests == 0 && cfg.Chat.Limiter.PerSecs != 0) {
		return errors.New("chat.limiter.requests and chat.limiter.per_secs must both be set or both be zero")
	}

	// reconnect
	if cfg.Reconnect.BaseDelaySecs < 1 || cfg.Reconnect.BaseDelaySecs > 300 {
		return errors.New("reconnect.base_delay_secs must be [1,300]")
	}
	if cfg.Reconnect.MaxAttempts < 0 || cfg.Reconnect.MaxAttempts > 100 {
		return errors.New("reconnect.max_attempts must be [0,100]")
	}

	// voting
	if cfg.Voting.DefaultDurationSecs < 10 || cfg.Voting.DefaultDurationSecs > 86400 {
		return errors.New("voting.default_duration_secs must be [10,86400]")
	}

	// rewards
	if cfg.Rewards.BuildingMint < 0 || cfg.Rewards.ProposalPassed < 0 {
		return errors.New("rewards amounts must not be negative")
	}
	if cfg.Rewards.Currency == "" {
		cfg.Rewards.Currency = "MTC"
	}

	// stats
	if cfg.Stats.PollIntervalSecs < 5 || cfg.Stats.PollIntervalSecs > 3600 {
		return errors.New("stats.poll_interval_secs must be [5,3600]")
	}

	return nil
}
