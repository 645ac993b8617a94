package config

import "time"

type Config struct {
	App       App         `json:"app"`
	Proxy     *Proxy      `json:"proxy"`
	Twitch    Twitch      `json:"twitch"`
	Tokens    *UserTokens `json:"tokens"`
	Chat      Chat        `json:"chat"`
	Reconnect Reconnect   `json:"reconnect"`
	Voting    Voting      `json:"voting"`
	Rewards   Rewards     `json:"rewards"`
	Stats     Stats       `json:"stats"`
}

type App struct {
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	GinMode   string `json:"gin_mode"`
	Addr      string `json:"addr"`
	AuthToken string `json:"auth_token"`
}

type Proxy struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type Twitch struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURL  string   `json:"redirect_uri"`
	Scopes       []string `json:"scopes"`
	ChatURL      string   `json:"chat_url"`
	AuthURL      string   `json:"auth_url"`
	HelixURL     string   `json:"helix_url"`
}

type UserTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

type Chat struct {
	MessageBuffer    int     `json:"message_buffer"`
	CommandBuffer    int     `json:"command_buffer"`
	MaxMessageLength int     `json:"max_message_length"`
	Limiter          Limiter `json:"limiter"`
}

// Limiter allows Requests outbound chat lines per PerSecs seconds.
type Limiter struct {
	Requests int `json:"requests"`
	PerSecs  int `json:"per_secs"`
}

type Reconnect struct {
	BaseDelaySecs int `json:"base_delay_secs"`
	MaxAttempts   int `json:"max_attempts"`
}

type Voting struct {
	DefaultDurationSecs int `json:"default_duration_secs"`
}

type Rewards struct {
	Currency       string `json:"currency"`
	BuildingMint   int64  `json:"building_mint"`
	ProposalPassed int64  `json:"proposal_passed"`
}

type Stats struct {
	PollIntervalSecs int `json:"poll_interval_secs"`
}

func (r Reconnect) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelaySecs) * time.Second
}

func (v Voting) DefaultDuration() time.Duration {
	return time.Duration(v.DefaultDurationSecs) * time.Second
}

func (s Stats) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSecs) * time.Second
}

func (l Limiter) Per() time.Duration {
	return time.Duration(l.PerSecs) * time.Second
}
