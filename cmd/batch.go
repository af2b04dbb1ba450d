package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inpainter/internal/container"
	"inpainter/internal/domain/entity"
	"inpainter/internal/infrastructure/filestore"
	"inpainter/internal/infrastructure/imageio"
)

var batchOpts struct {
	images string
	mask   string
	output string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Закрасить одной маской все изображения каталога",
	Long: `Обрабатывает изображения каталога --images по очереди и пишет результаты в --output.
Уже существующие результаты пропускаются, поэтому прерванный запуск можно продолжить.
Маска другого размера растягивается под каждое изображение.`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchOpts.images, "images", "", "каталог с исходными изображениями")
	f.StringVar(&batchOpts.mask, "mask", "", "маска: PNG с прозрачностью или чёрно-белая (белое удаляется)")
	f.StringVar(&batchOpts.output, "output", "", "каталог для результатов")
	f.String("model", "", "путь к ONNX-модели (без неё используется локальный синтез)")
	f.Int("size", 0, "сторона входа модели")
	f.Float64("overlap", 0, "перекрытие тайлов, доля стороны")
	f.Float64("padding", 0, "отступ контекста, доля размера маски")

	for _, name := range []string{"images", "mask", "output"} {
		_ = batchCmd.MarkFlagRequired(name)
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mask, err := loadMask(batchOpts.mask)
	if err != nil {
		return err
	}

	src := filestore.NewDirSource(batchOpts.images)
	sink, err := filestore.NewDirSink(batchOpts.output)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	c, cleanup, err := container.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := c.BatchService.Run(ctx, src, sink, mask, func(done, total int, outcome entity.ImageOutcome) {
		log.Info("progress",
			zap.Int("done", done),
			zap.Int("total", total),
			zap.String("image", outcome.Name),
			zap.String("status", string(outcome.Status)))
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "total: %d, processed: %d, skipped: %d, failed: %d\n",
		report.Total, report.Processed, report.Skipped, report.Failed)
	if report.Cancelled {
		return ctx.Err()
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d images failed", report.Failed, report.Total)
	}
	return nil
}

func loadMask(path string) (*entity.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mask: %w", err)
	}
	defer f.Close()

	return imageio.DecodeMask(f)
}
