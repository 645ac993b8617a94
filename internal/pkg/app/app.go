package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/net/proxy"
	"log/slog"
	"metacity/internal/app/adapters/chat"
	router "metacity/internal/app/adapters/http"
	"metacity/internal/app/adapters/metrics"
	"metacity/internal/app/adapters/platform/twitch"
	"metacity/internal/app/infrastructure/config"
	"metacity/internal/app/ports"
	"metacity/pkg/logger"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const configPath = "config.json"

// New wires the service and blocks until SIGINT/SIGTERM or a fatal server error.
func New() error {
	manager, err := config.New(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg := manager.Get()
	log := logger.NewWithOptions(logger.Options{File: cfg.App.LogFile, Console: os.Stdout})
	log.SetLogLevel(cfg.App.LogLevel)
	gin.SetMode(cfg.App.GinMode)

	client, err := newHTTPClient(cfg.Proxy)
	if err != nil {
		log.Error("Failed to configure proxy", err)
		return err
	}

	if cfg.Twitch.ClientID == "" || cfg.Twitch.ClientSecret == "" {
		log.Warn("twitch.client_id or twitch.client_secret is empty, login will fail until config.json is filled in")
	}

	clock := clockwork.NewRealClock()
	t := twitch.New(log, manager, client, clock)
	defer t.Close()

	session := chat.New(logger.NewPrefixedLogger(log, "session"), cfg, t.API(), t.Pool(), t.Chat(), chat.Options{Clock: clock})
	t.Chat().SetListener(session)
	metrics.ChatState.Set(float64(ports.Disconnected))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		session.Run(ctx)
	}()

	restoreCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := session.Restore(restoreCtx); err != nil {
		log.Error("Failed to restore Twitch session", err)
	}
	cancel()

	log.Info("MetaCity started", slog.String("addr", cfg.App.Addr))
	r := router.NewRouter(logger.NewPrefixedLogger(log, "http"), manager, session)
	err = r.Run(ctx)

	stop()
	<-sessionDone
	log.Info("MetaCity stopped")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newHTTPClient routes all Twitch traffic, chat included, through the SOCKS5 proxy when one is set.
func newHTTPClient(p *config.Proxy) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{
		Timeout:   10 * time.Second,
		Transport: transport,
	}

	if p == nil || p.Address == "" || p.Port == 0 {
		return client, nil
	}

	dialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", p.Address, p.Port), nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	transport.Proxy = nil
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}
	return client, nil
}
