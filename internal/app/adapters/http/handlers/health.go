package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status     string  `json:"status"`
	Uptime     string  `json:"uptime"`
	CPUPercent float64 `json:"cpu_percent"`
	HeapMB     uint64  `json:"heap_mb"`
	SysMB      uint64  `json:"sys_mb"`
	HostMemPct float64 `json:"host_mem_percent"`
	ChatState  string  `json:"chat_state"`
	Streaming  bool    `json:"is_streaming"`
}

func (h *Handlers) Health(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Truncate(time.Second).String(),
		HeapMB: m.HeapAlloc / 1024 / 1024,
		SysMB:  m.Sys / 1024 / 1024,
	}

	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		resp.CPUPercent = percent[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.HostMemPct = vm.UsedPercent
	}

	snap, err := h.session.Snapshot()
	if err != nil {
		resp.Status = "stopped"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	resp.ChatState = snap.ChatState.String()
	resp.Streaming = snap.Streaming

	c.JSON(http.StatusOK, resp)
}
