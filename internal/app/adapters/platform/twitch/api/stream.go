package api

import (
	"context"
	"github.com/tidwall/gjson"
	"metacity/internal/app/ports"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const thumbnailSize = "440x248"

// StreamInfo reports an offline stream as IsLive=false rather than an error.
func (t *Twitch) StreamInfo(ctx context.Context, login string) (*ports.StreamStats, error) {
	userID, err := t.UserID(ctx, login)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("user_id", userID)

	raw, err := t.doTwitchRequest(ctx, twitchRequest{
		Method: http.MethodGet,
		URL:    t.cfg.HelixURL + "/streams?" + params.Encode(),
	})
	if err != nil {
		return nil, err
	}

	stream := gjson.GetBytes(raw, "data.0")
	if !stream.Exists() {
		return &ports.StreamStats{}, nil
	}

	stats := &ports.StreamStats{
		ViewerCount:  int(stream.Get("viewer_count").Int()),
		IsLive:       stream.Get("type").String() == "live",
		Title:        stream.Get("title").String(),
		GameName:     stream.Get("game_name").String(),
		ThumbnailURL: strings.NewReplacer("{width}x{height}", thumbnailSize).Replace(stream.Get("thumbnail_url").String()),
	}
	if startedAt, err := time.Parse(time.RFC3339, stream.Get("started_at").String()); err == nil {
		stats.StartedAt = &startedAt
	}

	return stats, nil
}
