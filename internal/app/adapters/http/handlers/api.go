package handlers

import (
	"github.com/gin-gonic/gin"
	"metacity/internal/app/adapters/chat"
	"net/http"
	"time"
)

func (h *Handlers) State(c *gin.Context) {
	snap, err := h.session.Snapshot()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type joinRequest struct {
	Channel string `json:"channel"`
}

func (h *Handlers) JoinChat(c *gin.Context) {
	var req joinRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	if err := h.session.JoinChat(req.Channel); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) LeaveChat(c *gin.Context) {
	if err := h.session.LeaveChat(); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type sendRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handlers) SendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.session.SendMessage(req.Text); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type proposalRequest struct {
	chat.ProposalInput
	DurationSecs int `json:"duration_secs"`
}

func (h *Handlers) CreateProposal(c *gin.Context) {
	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	in := req.ProposalInput
	in.Duration = time.Duration(req.DurationSecs) * time.Second
	p, err := h.session.CreateProposal(in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handlers) EndProposal(c *gin.Context) {
	res, err := h.session.EndProposal(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) ApproveRequest(c *gin.Context) {
	req, err := h.session.ApproveRequest(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handlers) RejectRequest(c *gin.Context) {
	req, err := h.session.RejectRequest(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handlers) ClaimRewards(c *gin.Context) {
	res, err := h.session.ClaimRewards()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) StartStream(c *gin.Context) {
	if err := h.session.StartStream(); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) StopStream(c *gin.Context) {
	if err := h.session.StopStream(); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
