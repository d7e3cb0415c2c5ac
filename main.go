package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zensof/telegram-shop-bot/config"
	"github.com/zensof/telegram-shop-bot/internal/api"
	"github.com/zensof/telegram-shop-bot/internal/bot"
	"github.com/zensof/telegram-shop-bot/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer db.Close(context.Background())
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	if err := bot.RegisterCommands(tg); err != nil {
		log.Warn().Err(err).Msg("failed to register bot commands")
	}

	b := bot.NewBot(tg, cfg, db.Products, db.Sellers, db.Users)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	apiServer := api.NewServer(db.Products)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: apiServer.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.Run(ctx, updates)
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Msg("http api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		tg.StopReceivingUpdates()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("shutting down due to error")
	}
	log.Info().Msg("shutdown complete")
}
