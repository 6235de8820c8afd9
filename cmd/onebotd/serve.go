package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eya46/adapter-onebot/pkg/adapter"
	"github.com/eya46/adapter-onebot/pkg/config"
	"github.com/eya46/adapter-onebot/pkg/logger"
	"github.com/eya46/adapter-onebot/pkg/onebot"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the OneBot v11 adapter",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "path to the config file")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:        cfg.Log.Level,
		File:         cfg.Log.File,
		MaxSize:      cfg.Log.MaxSize,
		MaxBackups:   cfg.Log.MaxBackups,
		MaxAge:       cfg.Log.MaxAge,
		Compress:     cfg.Log.Compress,
		EnableStdout: cfg.Log.EnableStdout,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := adapter.New(cfg, adapter.Options{
		OnEvent: func(bot *adapter.Bot, ev onebot.Event) {
			logger.InfoCF("event", "Event received", map[string]interface{}{
				"self_id": ev.SelfIdentity(),
				"type":    ev.TypeKey(),
			})
		},
		OnBotConnect: func(bot *adapter.Bot) {
			logger.InfoCF("lifecycle", "Bot online", map[string]interface{}{
				"self_id": bot.Identity,
			})
		},
		OnBotDisconnect: func(bot *adapter.Bot) {
			logger.InfoCF("lifecycle", "Bot offline", map[string]interface{}{
				"self_id": bot.Identity,
			})
		},
	})

	if err := a.Start(ctx); err != nil {
		log.Fatalf("Failed to start adapter: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.InfoC("adapter", "Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := a.Stop(shutdownCtx); err != nil {
		logger.WarnCF("adapter", "Shutdown incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
