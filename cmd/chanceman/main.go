package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"runtime/debug"
	"syscall"

	"golang.org/x/sync/errgroup"

	sloggger "github.com/mlgudi/chance-man-sub000/cmd/chanceman/log"
	"github.com/mlgudi/chance-man-sub000/internal/config"
	"github.com/mlgudi/chance-man-sub000/internal/event"
	"github.com/mlgudi/chance-man-sub000/internal/gate"
	"github.com/mlgudi/chance-man-sub000/internal/item"
	"github.com/mlgudi/chance-man-sub000/internal/remote/discord"
	"github.com/mlgudi/chance-man-sub000/internal/remote/telegram"
	"github.com/mlgudi/chance-man-sub000/internal/roll"
	"github.com/mlgudi/chance-man-sub000/internal/server"
	"github.com/mlgudi/chance-man-sub000/internal/session"
)

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := debug.Stack()
				errMsg := fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, stackTrace)
				logger.Error(errMsg)
				sloggger.FlushLog()
			}
		}()
		return f()
	}
}

func main() {
	profileFlag := flag.String("profile", "", "profile to activate at startup")
	flag.Parse()

	if err := config.Load(); err != nil {
		log.Fatalf("Error loading configuration: %s", err.Error())
	}

	logger, err := sloggger.NewLogger(config.ChanceMan.Debug.Log, config.ChanceMan.LogSaveDirectory)
	if err != nil {
		log.Fatalf("Error starting logger: %s", err.Error())
	}
	defer sloggger.FlushAndClose()

	catalog, err := loadCatalog()
	if err != nil {
		logger.Error("Error loading item catalog", slog.Any("error", err))
		return
	}
	classifier := item.NewClassifier()
	rules := gate.DefaultRules()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	eventListener := event.NewListener(logger)

	wsServer := server.NewWebSocketServer()
	eventListener.Register(server.EventBroadcaster(wsServer))
	sink := server.NewBroadcastSink(wsServer, catalog.DisplayName)

	tracker := session.NewTracker(catalog, classifier, rules, eventListener, sink, logger, roll.Options{})

	srv, err := server.New(logger, tracker, wsServer)
	if err != nil {
		logger.Error("Error starting local server", slog.Any("error", err))
		return
	}

	if config.ChanceMan.Discord.Enabled {
		notifier, err := discord.NewNotifier(config.ChanceMan.Discord.WebhookURL, catalog.DisplayName)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
			return
		}
		eventListener.Register(notifier.Handle)
	}

	if config.ChanceMan.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(config.ChanceMan.Telegram.Token, config.ChanceMan.Telegram.ChatID, tracker.Status, logger)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
			return
		}
		eventListener.Register(telegramBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			return telegramBot.Start(ctx)
		}))
	}

	if profile := startupProfile(*profileFlag); profile != "" {
		if err := tracker.ActivateProfile(profile); err != nil {
			logger.Error("Error activating profile", "profile", profile, slog.Any("error", err))
			return
		}
	}

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return tracker.Run(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		if err := srv.Listen(config.ChanceMan.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}))

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return eventListener.Listen(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		return srv.Stop()
	}))

	if err := g.Wait(); err != nil {
		logger.Error("Error running application", slog.Any("error", err))
	}
}

// loadCatalog reads the catalog file named in the config, falling back to the
// embedded item data when no path is configured.
func loadCatalog() (*item.Catalog, error) {
	return item.LoadCatalog(config.ChanceMan.CatalogPath)
}

// startupProfile picks the profile to activate on launch: the -profile flag
// when given, otherwise the sole configured profile if there is exactly one.
func startupProfile(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	profiles := config.GetProfiles()
	if len(profiles) == 1 {
		for name := range profiles {
			return name
		}
	}
	return ""
}
