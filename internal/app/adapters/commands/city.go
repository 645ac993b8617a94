package commands

import (
	"fmt"
	"metacity/internal/app/domain/city"
	"metacity/internal/app/domain/message"
	"metacity/internal/app/ports"
	"strings"
)

var buildUsage = &ports.AnswerType{
	Text:    []string{"Usage: !build <building_type>"},
	IsReply: true,
}

var requestEvents = map[city.Action]ports.EventType{
	city.Build:    ports.EventBuildRequested,
	city.Upgrade:  ports.EventUpgradeRequested,
	city.Demolish: ports.EventDemolishRequested,
}

// CityAction files a request for the streamer to approve on the dashboard.
type CityAction struct {
	action  city.Action
	planner *city.Planner
	emit    ports.EventListener
}

func (c *CityAction) Execute(cmd *message.ChatCommand) *ports.AnswerType {
	target := strings.Join(cmd.Args, " ")
	if c.action == city.Build && len(cmd.Args) < 1 {
		return buildUsage
	}

	req, err := c.planner.Request(c.action, target, cmd.User.Username, cmd.User.DisplayName)
	if err != nil {
		return buildUsage
	}

	c.emit(ports.Event{
		Type:    requestEvents[c.action],
		Title:   requestTitle(c.action),
		Message: requestMessage(req),
		Data:    req,
	})
	return nil
}

func requestTitle(action city.Action) string {
	switch action {
	case city.Build:
		return "🏗️ Building Request"
	case city.Upgrade:
		return "⬆️ Upgrade Request"
	default:
		return "🧨 Demolish Request"
	}
}

func requestMessage(req city.Request) string {
	switch req.Action {
	case city.Build:
		return fmt.Sprintf("%s wants to build: %s", req.DisplayName, req.Target)
	case city.Upgrade:
		if req.Target != "" {
			return fmt.Sprintf("%s suggests upgrading: %s", req.DisplayName, req.Target)
		}
		return fmt.Sprintf("%s suggests upgrading a building", req.DisplayName)
	default:
		if req.Target != "" {
			return fmt.Sprintf("%s suggests demolishing: %s", req.DisplayName, req.Target)
		}
		return fmt.Sprintf("%s suggests demolishing a building", req.DisplayName)
	}
}
