package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"inpainter/internal/api/rest"
	"inpainter/internal/api/telegram"
	"inpainter/internal/container"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP API (и Telegram-бота, если задан токен)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("model", "", "путь к ONNX-модели")
}

func runServe(cmd *cobra.Command, args []string) error {
	c, cleanup, err := container.Build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	router := rest.NewRouter(cfg.Server.Mode,
		rest.NewInpaintHandler(c.InpaintService, log),
		cfg.Server.MaxUploadSize,
		rest.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
		log)
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramToken, c, cfg.Bot.ProgressInterval, log)
		if err != nil {
			return err
		}
	} else {
		log.Info("telegram token is not set, bot disabled")
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return rest.Serve(ctx, srv, log)
	})
	if bot != nil {
		g.Go(func() error {
			return bot.Run(ctx)
		})
	}

	return g.Wait()
}
