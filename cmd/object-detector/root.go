package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nvr-ai/object-detector/config"
	"github.com/nvr-ai/object-detector/detector"
	"github.com/nvr-ai/object-detector/images"
	"github.com/nvr-ai/object-detector/inference/providers"
	"github.com/nvr-ai/object-detector/metrics"
	"github.com/nvr-ai/object-detector/models"
	"github.com/nvr-ai/object-detector/models/postprocess"
)

// positionalKeys maps NAMES CFG WEIGHTS (IMAGE|many|-) CONFIDENCE to configuration keys.
var positionalKeys = []string{"classes", "model.config", "model.weights", "input", "confidence"}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"classes":            "classes",
	"model-config":       "model.config",
	"model-weights":      "model.weights",
	"backend":            "model.backend",
	"input-width":        "model.input_width",
	"input-height":       "model.input_height",
	"onnx-library":       "model.onnx.library_path",
	"execution-provider": "model.onnx.execution_provider",
	"input":              "input",
	"confidence":         "confidence",
	"nms-threshold":      "nms_threshold",
	"degenerate-boxes":   "degenerate_boxes",
	"max-image-bytes":    "max_image_bytes",
	"metrics-file":       "metrics_file",
	"debug":              "debug",
}

// usageError reports malformed command line arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
	)

	cmd := &cobra.Command{
		Use:   "object-detector [NAMES CFG WEIGHTS (IMAGE|many|-) CONFIDENCE]",
		Short: "Detect objects in images with a YOLO network",
		Long: `object-detector runs a darknet or ONNX YOLO network over images and prints the
detections of each image as a JSON array on standard output.

IMAGE is a path, "-" to read one encoded image from standard input, or "many" to
read one path per line from standard input until a line reading "done".

Every positional can also be given as a flag, in the config file, or through
DETECT_ environment variables (e.g. DETECT_MODEL_WEIGHTS).`,
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(len(positionalKeys))(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			setupLogging(debug)

			cfg, err := config.Load(configPath, config.Options{
				EnvFile:   envFile,
				Overrides: overrides(cmd, args),
			})
			if err != nil {
				return err
			}
			if cfg.Debug && !debug {
				setupLogging(true)
			}

			return run(cmd.Context(), cfg)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	flags.StringVar(&envFile, "env-file", "", "Path to a dotenv file with DETECT_ variables")
	flags.String("classes", "", `Class names file, one per line, or "coco"`)
	flags.String("model-config", "", "Darknet network config (.cfg)")
	flags.String("model-weights", "", "Darknet weights or ONNX model")
	flags.String("backend", "darknet", "Inference backend: darknet or onnx")
	flags.Int("input-width", 416, "Network input width")
	flags.Int("input-height", 416, "Network input height")
	flags.String("onnx-library", "", "Path to the onnxruntime shared library")
	flags.String("execution-provider", "cpu", "ONNX execution provider: cpu, cuda or coreml")
	flags.String("input", "", `Image path, "-" for standard input, or "many"`)
	flags.String("confidence", "", "Confidence threshold in [0, 1]")
	flags.Float32("nms-threshold", postprocess.DefaultNMSThreshold, "IoU above which same-class boxes are suppressed")
	flags.String("degenerate-boxes", string(postprocess.DegeneratePassthrough), "Negative box sizes: passthrough or clamp")
	flags.Int64("max-image-bytes", 0, "Largest encoded image accepted from standard input")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file at exit")
	flags.Bool("debug", false, "Enable debug logging")

	return cmd
}

// overrides collects positionals and explicitly set flags. Positionals win over flags.
func overrides(cmd *cobra.Command, args []string) map[string]any {
	values := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			values[key] = f.Value.String()
		}
	})
	for i, arg := range args {
		values[positionalKeys[i]] = arg
	}
	return values
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func run(parent context.Context, cfg *config.Config) (err error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	classes, err := models.LoadClassFile(cfg.Classes)
	if err != nil {
		return err
	}

	pipeline, err := postprocess.NewPipeline(cfg.Pipeline(), classes)
	if err != nil {
		return err
	}

	engine, err := providers.NewEngine(cfg.Engine())
	if err != nil {
		return err
	}

	m := metrics.New()
	defer func() {
		if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
			log.Warn().Err(werr).Msg("failed to export metrics")
		}
	}()

	det, err := detector.New(engine, images.Loader{MaxBytes: cfg.MaxImageBytes}, pipeline, detector.Options{
		MaxImageBytes: cfg.MaxImageBytes,
		Metrics:       m,
	})
	if err != nil {
		_ = engine.Close()
		return err
	}
	defer func() {
		if cerr := det.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to release engine")
		}
	}()

	log.Debug().
		Str("backend", cfg.Model.Backend).
		Str("weights", cfg.Model.Weights).
		Int("classes", classes.Len()).
		Float32("confidence", cfg.Confidence).
		Float32("nms_threshold", cfg.NMSThreshold).
		Str("input", cfg.Input).
		Msg("detector ready")

	return det.Run(ctx, cfg.Input, os.Stdin, os.Stdout)
}
