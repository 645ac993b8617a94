package ports

import (
	"context"
	"time"
)

type TwitchUser struct {
	ID              string    `json:"id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	Type            string    `json:"type"`
	BroadcasterType string    `json:"broadcaster_type"`
	Description     string    `json:"description"`
	ProfileImageURL string    `json:"profile_image_url"`
	OfflineImageURL string    `json:"offline_image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

type StreamStats struct {
	ViewerCount  int        `json:"viewer_count"`
	IsLive       bool       `json:"is_live"`
	Title        string     `json:"title"`
	GameName     string     `json:"game_name"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url"`
}

type APIPort interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) error
	RefreshToken(ctx context.Context) error
	AccessToken() string
	ClearTokens()
	CurrentUser(ctx context.Context) (*TwitchUser, error)
	StreamInfo(ctx context.Context, login string) (*StreamStats, error)
}

type APIPoolPort interface {
	Submit(task func()) error
	Stop()
}
