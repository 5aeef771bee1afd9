// Command compose overlays a dropon logo onto a host JPEG photograph
// entirely in the DCT-coefficient domain: the host is never decoded to
// pixels, so any region the logo doesn't touch is written out bit-identical
// to the input. This is an illustrative driver over the dropjpeg package,
// not part of its core contract.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/dlecorfec/dropjpeg"
)

type alignment struct {
	h dropjpeg.HAlign
	v dropjpeg.VAlign
}

var alignments = map[string]alignment{
	"tl": {dropjpeg.HLeft, dropjpeg.VTop},
	"tc": {dropjpeg.HCenter, dropjpeg.VTop},
	"tr": {dropjpeg.HRight, dropjpeg.VTop},
	"cl": {dropjpeg.HLeft, dropjpeg.VCenter},
	"cc": {dropjpeg.HCenter, dropjpeg.VCenter},
	"cr": {dropjpeg.HRight, dropjpeg.VCenter},
	"bl": {dropjpeg.HLeft, dropjpeg.VBottom},
	"bc": {dropjpeg.HCenter, dropjpeg.VBottom},
	"br": {dropjpeg.HRight, dropjpeg.VBottom},
}

func newLogger(logPath string) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}),
		zap.InfoLevel,
	)
	return zap.New(core)
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		maskPath string
		align    string
		blend    int
		offsetX  int
		offsetY  int
		logPath  string
	)

	exitCode := 0
	cmd := &cobra.Command{
		Use:           "compose INPUT.jpg LOGO.jpg OUTPUT.jpg",
		Short:         "Composite a logo onto a JPEG photograph in the DCT-coefficient domain",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			a, ok := alignments[align]
			if !ok {
				exitCode = 2
				return errors.Errorf("compose: unknown --align value %q", align)
			}

			logger := newLogger(logPath)
			defer logger.Sync() //nolint:errcheck

			log := logger.With(zap.String("run_id", uuid.New().String()))
			placement := dropjpeg.Placement{HAlign: a.h, VAlign: a.v, OffsetX: offsetX, OffsetY: offsetY}
			code, err := composeFiles(log, args[0], args[1], maskPath, args[2], blend, placement)
			exitCode = code
			return err
		},
	}
	cmd.Flags().StringVar(&maskPath, "mask", "", "optional grayscale/RGB JPEG whose luma channel supplies a per-pixel alpha mask")
	cmd.Flags().StringVar(&align, "align", "cc", "placement: tl|tc|tr|cl|cc|cr|bl|bc|br")
	cmd.Flags().IntVar(&blend, "blend", dropjpeg.BlendFull, "uniform blend strength 0..255 (ignored when --mask is set)")
	cmd.Flags().IntVar(&offsetX, "offset-x", 0, "horizontal pixel nudge from the alignment position, truncated to whole blocks")
	cmd.Flags().IntVar(&offsetY, "offset-y", 0, "vertical pixel nudge from the alignment position, truncated to whole blocks")
	cmd.Flags().StringVar(&logPath, "log", "compose.log", "structured log output path")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "compose:", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

// composeFiles drives C1-C7 over file paths and returns the CLI exit code
// alongside any error: 0 success, 1 I/O error, 2 unsupported format, 3
// placement error.
func composeFiles(log *zap.Logger, inputPath, logoPath, maskPath, outputPath string, blend int, placement dropjpeg.Placement) (int, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return 1, errors.Wrap(err, "compose: opening host image")
	}
	defer in.Close()

	host, err := dropjpeg.Open(in)
	if err != nil {
		log.Error("decode host", zap.Error(err), zap.String("path", inputPath))
		if errors.Is(err, dropjpeg.ErrUnsupportedFormat) {
			return 2, err
		}
		return 1, err
	}

	logo, err := dropjpeg.NewDroponFromJPEG(logoPath, maskPath, blend)
	if err != nil {
		log.Error("load dropon", zap.Error(err), zap.String("path", logoPath))
		if errors.Is(err, dropjpeg.ErrUnsupportedFormat) {
			return 2, err
		}
		return 1, err
	}

	if err := dropjpeg.Compose(host, logo, placement); err != nil {
		log.Error("compose", zap.Error(err))
		if errors.Is(err, dropjpeg.ErrInvalidPlacement) {
			return 3, err
		}
		return 1, err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return 1, errors.Wrap(err, "compose: creating output file")
	}
	defer out.Close()

	if err := host.WriteTo(out); err != nil {
		log.Error("encode output", zap.Error(err), zap.String("path", outputPath))
		return 1, err
	}

	log.Info("composed",
		zap.String("input", inputPath),
		zap.String("logo", logoPath),
		zap.String("mask", maskPath),
		zap.String("output", outputPath),
		zap.Int("blend", blend),
	)
	return 0, nil
}
