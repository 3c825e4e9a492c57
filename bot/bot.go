package bot

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"github.com/ryoka/teragrab-bot/admission"
	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/core"
	"golang.org/x/net/proxy"
)

var (
	Client *gotgproto.Client

	orch *core.Orchestrator
	ctrl *admission.Controller
)

// Wire hands the bot its collaborators. Called once before Init registers
// any handler that could fire.
func Wire(o *core.Orchestrator, c *admission.Controller) {
	orch = o
	ctrl = c
}

func newProxyDialer(proxyURL string) (proxy.Dialer, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	return proxy.FromURL(u, proxy.Direct)
}

// Init logs the bot in and registers handlers. It fails hard after 60
// seconds; a bot that cannot reach Telegram has nothing else to do.
func Init(ctx context.Context) error {
	logger := log.FromContext(ctx)
	logger.Info("Initializing Telegram client...")
	initCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	type result struct {
		client *gotgproto.Client
		err    error
	}
	resultChan := make(chan result, 1)
	go func() {
		var resolver dcs.Resolver
		if config.C().Telegram.Proxy.Enable && config.C().Telegram.Proxy.URL != "" {
			dialer, err := newProxyDialer(config.C().Telegram.Proxy.URL)
			if err != nil {
				resultChan <- result{nil, fmt.Errorf("creating proxy dialer: %w", err)}
				return
			}
			resolver = dcs.Plain(dcs.PlainOptions{
				Dial: dialer.(proxy.ContextDialer).DialContext,
			})
		} else {
			resolver = dcs.DefaultResolver()
		}
		client, err := gotgproto.NewClient(config.C().Telegram.AppID,
			config.C().Telegram.AppHash,
			gotgproto.ClientTypeBot(config.C().Telegram.Token),
			&gotgproto.ClientOpts{
				Session:          sessionMaker.SqlSession(sqlite.Open(config.C().DB.Session)),
				DisableCopyright: true,
				Middlewares:      FloodWaitMiddleware(),
				Resolver:         resolver,
			},
		)
		if err != nil {
			resultChan <- result{nil, err}
			return
		}
		_, err = client.API().BotsSetBotCommands(initCtx, &tg.BotsSetBotCommandsRequest{
			Scope: &tg.BotCommandScopeDefault{},
			Commands: []tg.BotCommand{
				{Command: "start", Description: "Start using the bot"},
				{Command: "help", Description: "Show help"},
				{Command: "status", Description: "Show quota and recent downloads"},
				{Command: "cancel", Description: "Cancel the current download"},
				{Command: "silent", Description: "Toggle silent mode"},
				{Command: "forward", Description: "Set a channel for auto-forwarding"},
			},
		})
		resultChan <- result{client, err}
	}()

	select {
	case <-initCtx.Done():
		return fmt.Errorf("client initialization timed out")
	case r := <-resultChan:
		if r.err != nil {
			return fmt.Errorf("initializing client: %w", r.err)
		}
		Client = r.client
		RegisterHandlers(Client.Dispatcher)
		logger.Infof("Logged in as @%s", Client.Self.Username)
		return nil
	}
}
