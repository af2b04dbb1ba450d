package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inpainter/config"
	"inpainter/internal/logger"
)

var (
	configPath string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "inpainter",
	Short:         "Удаление объектов с изображений по маске",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd); err != nil {
			return err
		}

		log, err = logger.New(cfg.Log.Mode)
		if err != nil {
			return err
		}
		log.Info("starting inpainter",
			zap.String("command", cmd.Name()),
			zap.String("version", Version),
			zap.String("git_commit", GitCommit))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync(log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "путь к YAML-конфигурации (по умолчанию ./config.yaml, если есть)")

	rootCmd.AddCommand(batchCmd, botCmd, serveCmd)
}

// applyFlags переносит явно заданные флаги команды поверх конфигурации.
func applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Inference.ModelPath, _ = flags.GetString("model")
	}
	if flags.Changed("size") {
		cfg.Inference.TileSize, _ = flags.GetInt("size")
	}
	if flags.Changed("overlap") {
		cfg.Inpaint.OverlapFraction, _ = flags.GetFloat64("overlap")
	}
	if flags.Changed("padding") {
		cfg.Inpaint.PaddingFraction, _ = flags.GetFloat64("padding")
	}
	return cfg.Validate()
}
