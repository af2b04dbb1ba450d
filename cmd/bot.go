package main

import (
	"errors"

	"github.com/spf13/cobra"

	"inpainter/internal/api/telegram"
	"inpainter/internal/container"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Запустить Telegram-бота",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.TelegramToken == "" {
			return errors.New("TELEGRAM_TOKEN is required")
		}

		c, cleanup, err := container.Build(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		bot, err := telegram.NewBot(cfg.TelegramToken, c, cfg.Bot.ProgressInterval, log)
		if err != nil {
			return err
		}

		log.Info("bot is running")
		return bot.Run(ctx)
	},
}

func init() {
	botCmd.Flags().String("model", "", "путь к ONNX-модели")
}
