// Package config - Layered configuration for the object detector.
package config

import (
	"image"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nvr-ai/object-detector/inference"
	"github.com/nvr-ai/object-detector/models/postprocess"
	"github.com/nvr-ai/object-detector/util"
)

// EnvPrefix prefixes every environment override, e.g. DETECT_MODEL_WEIGHTS.
const EnvPrefix = "DETECT"

// Input targets with a special meaning.
const (
	// InputMany streams image paths from standard input until "done".
	InputMany = "many"
	// InputStdin reads one encoded image from standard input.
	InputStdin = "-"
)

// Config is the complete detector configuration.
type Config struct {
	// Classes is the class names file, one name per line, or "coco".
	Classes string `mapstructure:"classes"`
	// Model describes the network.
	Model ModelConfig `mapstructure:"model"`
	// Input is an image path, InputMany or InputStdin.
	Input string `mapstructure:"input"`
	// Confidence is the strict lower bound on detection confidence.
	Confidence float32 `mapstructure:"confidence"`
	// NMSThreshold is the IoU above which same-class boxes are suppressed.
	NMSThreshold float32 `mapstructure:"nms_threshold"`
	// DegenerateBoxes is "passthrough" or "clamp".
	DegenerateBoxes string `mapstructure:"degenerate_boxes"`
	// MaxImageBytes bounds an encoded image read from standard input.
	MaxImageBytes int64 `mapstructure:"max_image_bytes"`
	// MetricsFile receives a Prometheus textfile at exit when set.
	MetricsFile string `mapstructure:"metrics_file"`
	// Debug enables debug level console logging.
	Debug bool `mapstructure:"debug"`
}

// ModelConfig describes the network and its input geometry.
type ModelConfig struct {
	Backend     string               `mapstructure:"backend"`
	Config      string               `mapstructure:"config"`
	Weights     string               `mapstructure:"weights"`
	InputWidth  int                  `mapstructure:"input_width"`
	InputHeight int                  `mapstructure:"input_height"`
	ONNX        inference.ONNXConfig `mapstructure:"onnx"`
}

// Options are command line overrides.
type Options struct {
	// EnvFile is a dotenv file loaded into the environment before reading DETECT_ variables.
	EnvFile string
	// Overrides are values given on the command line, keyed by configuration key.
	Overrides map[string]any
}

// Load loads configuration from file, environment and command line, in increasing
// order of precedence, and validates it.
//
// Arguments:
//   - configPath: Optional YAML config file.
//   - opts: Command line overrides.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: An error wrapping postprocess.ErrConfiguration.
func Load(configPath string, opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, errors.Wrapf(postprocess.ErrConfiguration, "failed to load env file %s: %v", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(postprocess.ErrConfiguration, "failed to read config file: %v", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	if !v.IsSet("confidence") {
		return nil, errors.Wrap(postprocess.ErrConfiguration, "confidence threshold is required")
	}
	if strings.TrimSpace(v.GetString("confidence")) == "" {
		return nil, errors.Wrap(postprocess.ErrConfiguration, "confidence threshold is empty")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(postprocess.ErrConfiguration, "failed to unmarshal config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	engine := inference.DefaultConfig()

	v.SetDefault("model.backend", string(engine.Backend))
	v.SetDefault("model.config", "")
	v.SetDefault("model.weights", "")
	v.SetDefault("model.input_width", engine.InputShape.X)
	v.SetDefault("model.input_height", engine.InputShape.Y)
	v.SetDefault("model.onnx.input_name", engine.ONNX.InputName)
	v.SetDefault("model.onnx.output_names", engine.ONNX.OutputNames)
	v.SetDefault("model.onnx.output_shape", []int64{})
	v.SetDefault("model.onnx.library_path", "")
	v.SetDefault("model.onnx.execution_provider", engine.ONNX.ExecutionProvider)

	v.SetDefault("classes", "")
	v.SetDefault("input", "")
	v.SetDefault("nms_threshold", postprocess.DefaultNMSThreshold)
	v.SetDefault("degenerate_boxes", string(postprocess.DegeneratePassthrough))
	v.SetDefault("max_image_bytes", util.DefaultMaxImageBytes)
	v.SetDefault("metrics_file", "")
	v.SetDefault("debug", false)
}

// Validate checks every setting needed before any image is processed.
func (c *Config) Validate() error {
	if c.Classes == "" {
		return errors.Wrap(postprocess.ErrConfiguration, "class names file is required")
	}
	if c.Input == "" {
		return errors.Wrap(postprocess.ErrConfiguration, "input image, \"many\" or \"-\" is required")
	}
	if c.MaxImageBytes <= 0 {
		return errors.Wrapf(postprocess.ErrConfiguration, "max_image_bytes must be positive, got %d", c.MaxImageBytes)
	}
	if err := c.Pipeline().Validate(); err != nil {
		return err
	}
	return c.Engine().Validate()
}

// Pipeline returns the post-processing configuration.
func (c *Config) Pipeline() postprocess.Config {
	return postprocess.Config{
		ConfidenceThreshold: c.Confidence,
		NMSThreshold:        c.NMSThreshold,
		DegenerateBoxes:     postprocess.DegeneratePolicy(c.DegenerateBoxes),
	}
}

// Engine returns the inference engine configuration.
func (c *Config) Engine() inference.Config {
	return inference.Config{
		Backend:    inference.EngineType(c.Model.Backend),
		Config:     c.Model.Config,
		Weights:    c.Model.Weights,
		InputShape: image.Point{X: c.Model.InputWidth, Y: c.Model.InputHeight},
		ONNX:       c.Model.ONNX,
	}
}
