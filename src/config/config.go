// Package config defines the toolkit configuration and how it is loaded.
//
// Values are layered defaults -> YAML file -> environment. Command-line
// flags are applied by the caller on top of the loaded Config.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"

	"bvhToolkit/src/extract"
	"bvhToolkit/src/remap"
	"bvhToolkit/src/skeleton"

	"gonum.org/v1/gonum/spatial/r3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Extract ExtractConfig `koanf:"extract"`
	Remap   RemapConfig   `koanf:"remap"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ExtractConfig configures the BVH -> pose array stage.
type ExtractConfig struct {
	Input  string `koanf:"input"`
	Output string `koanf:"output"`

	// FrameStart and FrameEnd narrow the scene's frame range. Nil keeps the
	// scene's own bound.
	FrameStart *int `koanf:"frame_start"`
	FrameEnd   *int `koanf:"frame_end"`

	// CorrectionDeg is the Z rotation pre-multiplied onto every orientation.
	CorrectionDeg float64 `koanf:"correction_deg"`

	// Scale multiplies BVH offsets and root translation.
	Scale float64 `koanf:"scale"`
}

// RemapConfig configures the BVH -> SMPL keypoint stage.
type RemapConfig struct {
	Input  string `koanf:"input"`
	Output string `koanf:"output"`

	// Stride keeps every Stride-th frame.
	Stride int `koanf:"stride"`

	// Scale is the per-axis scale applied around the pelvis.
	Scale []float64 `koanf:"scale"`

	Widen bool    `koanf:"widen"`
	Delta float64 `koanf:"delta"`

	// LateralAxis is the pelvis-local direction the legs are widened along.
	LateralAxis []float64 `koanf:"lateral_axis"`

	// Mapping overrides entries of the built-in source -> target table.
	Mapping map[string]string `koanf:"mapping"`
}

// MetricsConfig configures the optional Pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
	Job            string `koanf:"job"`
	// Namespace prefixes every metric name.
	Namespace string `koanf:"namespace"`
}

// metricName matches a Prometheus metric name prefix.
var metricName = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Extract: ExtractConfig{
			Output:        "world_data.npy",
			CorrectionDeg: extract.DefaultCorrectionDeg,
			Scale:         1.0,
		},
		Remap: RemapConfig{
			Input:       "world_data.npy",
			Output:      "smpl_keypoints.npy",
			Stride:      remap.DefaultStride,
			Scale:       vecSlice(remap.DefaultScale),
			Delta:       remap.DefaultDelta,
			LateralAxis: vecSlice(remap.DefaultLateralAxis),
		},
		Metrics: MetricsConfig{
			Job:       "bvhtoolkit",
			Namespace: "bvhtoolkit",
		},
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if !finite(c.Extract.CorrectionDeg) {
		return fmt.Errorf("%w: extract.correction_deg must be finite", ErrInvalidConfig)
	}
	if !finite(c.Extract.Scale) || c.Extract.Scale <= 0 {
		return fmt.Errorf("%w: extract.scale must be positive", ErrInvalidConfig)
	}
	if s, e := c.Extract.FrameStart, c.Extract.FrameEnd; s != nil && e != nil && *s > *e {
		return fmt.Errorf("%w: extract.frame_start %d after frame_end %d", ErrInvalidConfig, *s, *e)
	}
	if c.Remap.Stride < 1 {
		return fmt.Errorf("%w: remap.stride must be >= 1, got %d", ErrInvalidConfig, c.Remap.Stride)
	}
	if _, err := toVec("remap.scale", c.Remap.Scale); err != nil {
		return err
	}
	axis, err := toVec("remap.lateral_axis", c.Remap.LateralAxis)
	if err != nil {
		return err
	}
	if r3.Norm(axis) == 0 {
		return fmt.Errorf("%w: remap.lateral_axis must be non-zero", ErrInvalidConfig)
	}
	if !finite(c.Remap.Delta) {
		return fmt.Errorf("%w: remap.delta must be finite", ErrInvalidConfig)
	}
	if !metricName.MatchString(c.Metrics.Namespace) {
		return fmt.Errorf("%w: metrics.namespace %q is not a valid metric name prefix", ErrInvalidConfig, c.Metrics.Namespace)
	}
	return nil
}

// RemapScale returns remap.scale as a vector.
func (c *Config) RemapScale() r3.Vec {
	v, _ := toVec("remap.scale", c.Remap.Scale)
	return v
}

// RemapLateralAxis returns remap.lateral_axis as a vector.
func (c *Config) RemapLateralAxis() r3.Vec {
	v, _ := toVec("remap.lateral_axis", c.Remap.LateralAxis)
	return v
}

// RemapMapping merges the configured overrides onto the built-in table.
func (c *Config) RemapMapping() skeleton.Mapping {
	if len(c.Remap.Mapping) == 0 {
		return skeleton.BVHToSMPL
	}
	return skeleton.BVHToSMPL.Merge(skeleton.MappingFromMap(c.Remap.Mapping))
}

// RemapOptions translates the remap section into remapper options.
func (c *Config) RemapOptions() []remap.Option {
	opts := []remap.Option{
		remap.WithStride(c.Remap.Stride),
		remap.WithScale(c.RemapScale()),
		remap.WithLateralAxis(c.RemapLateralAxis()),
		remap.WithMapping(c.RemapMapping()),
	}
	if c.Remap.Widen {
		opts = append(opts, remap.WithWidening(c.Remap.Delta))
	}
	return opts
}

func toVec(key string, v []float64) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, fmt.Errorf("%w: %s needs 3 values, got %d", ErrInvalidConfig, key, len(v))
	}
	for _, x := range v {
		if !finite(x) {
			return r3.Vec{}, fmt.Errorf("%w: %s must be finite", ErrInvalidConfig, key)
		}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func vecSlice(v r3.Vec) []float64 {
	return []float64{v.X, v.Y, v.Z}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
