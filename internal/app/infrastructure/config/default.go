package config

func (m *Manager) GetDefault() *Config {
	return Default()
}

func Default() *Config {
	return &Config{
		App: App{
			LogLevel: "info",
			LogFile:  "logs/main.log",
			GinMode:  "release",
			Addr:     ":8080",
		},
		Twitch: Twitch{
			RedirectURL: "http://localhost:8080/auth/callback",
			Scopes: []string{
				"chat:read",
				"chat:edit",
				"channel:read:subscriptions",
				"user:read:email",
				"channel:moderate",
			},
			ChatURL:  "wss://irc-ws.chat.twitch.tv:443",
			AuthURL:  "https://id.twitch.tv/oauth2",
			HelixURL: "https://api.twitch.tv/helix",
		},
		Chat: Chat{
			MessageBuffer:    100,
			CommandBuffer:    20,
			MaxMessageLength: 500,
			Limiter: Limiter{
				Requests: 20,
				PerSecs:  30,
			},
		},
		Reconnect: Reconnect{
			BaseDelaySecs: 5,
			MaxAttempts:   5,
		},
		Voting: Voting{
			DefaultDurationSecs: 300,
		},
		Rewards: Rewards{
			Currency:       "MTC",
			BuildingMint:   100,
			ProposalPassed: 50,
		},
		Stats: Stats{
			PollIntervalSecs: 30,
		},
	}
}
