package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"surface3d/surface"
	vm "surface3d/vector_math"
)

// Output formats.
const (
	FormatSTL      = "stl"
	FormatSTLASCII = "stl-ascii"
	FormatJSON     = "json"
	FormatGPU      = "gpu"
)

// Environment variables that override the surface resolution.
const (
	EnvU = "SURFACE3D_U"
	EnvV = "SURFACE3D_V"
)

// FunctionRecord selects the authoring record given in Surface.Record
// instead of a built-in surface.
const FunctionRecord = "record"

// Config holds all surface3d configuration.
type Config struct {
	Surface  SurfaceConfig  `yaml:"surface"`
	Sampling SamplingConfig `yaml:"sampling"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SurfaceConfig selects the surface and its resolution.
type SurfaceConfig struct {
	Name     string     `yaml:"name"`
	Origin   [3]float64 `yaml:"origin,flow"`
	Function string     `yaml:"function"` // halfsphere, plane or record
	U        int        `yaml:"u"`
	V        int        `yaml:"v"`
	Record   string     `yaml:"record"` // path to a record or a script carrying one
	// Transform places the sampled surface before it reaches the sink.
	Transform TransformConfig `yaml:"transform"`
}

// TransformConfig scales, rotates and moves the surface, in that order.
type TransformConfig struct {
	Scale     [3]float64 `yaml:"scale,flow"`
	Rotate    [3]float64 `yaml:"rotate,flow"` // degrees about x, y, z
	Translate [3]float64 `yaml:"translate,flow"`
}

func (t TransformConfig) IsIdentity() bool {
	return t.Scale == [3]float64{1, 1, 1} && t.Rotate == [3]float64{} && t.Translate == [3]float64{}
}

// Matrix returns the placement matrix, or nil for the identity.
func (t TransformConfig) Matrix() vm.Mat {
	if t.IsIdentity() {
		return nil
	}
	return vm.NewPlacement(vec(t.Scale), vec(t.Rotate), vec(t.Translate))
}

func vec(a [3]float64) vm.Vec3 {
	return vm.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

type SamplingConfig struct {
	// Workers > 1 samples grid rows concurrently.
	Workers int `yaml:"workers"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"` // "-" is stdout
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the half sphere at its default resolution.
func DefaultConfig() *Config {
	return &Config{
		Surface: SurfaceConfig{
			Name:      "Surface3D",
			Function:  "halfsphere",
			U:         surface.DefaultU,
			V:         surface.DefaultV,
			Transform: TransformConfig{Scale: [3]float64{1, 1, 1}},
		},
		Output: OutputConfig{
			Format: FormatSTL,
			Path:   "-",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() error {
	for env, dst := range map[string]*int{
		EnvU:                &c.Surface.U,
		EnvV:                &c.Surface.V,
		"SURFACE3D_WORKERS": &c.Sampling.Workers,
	} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", env, val, err)
		}
		*dst = n
	}
	if lvl := os.Getenv("SURFACE3D_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if addr := os.Getenv("SURFACE3D_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	return nil
}

// Validate checks the resolution, the surface function and the output format.
func (c *Config) Validate() error {
	if _, err := surface.NewGrid(c.Surface.U, c.Surface.V); err != nil {
		return err
	}
	if c.Surface.Name == "" {
		return errors.New("surface.name must not be empty")
	}
	if c.Surface.Function == FunctionRecord {
		if c.Surface.Record == "" {
			return errors.New("surface.record is required when surface.function is record")
		}
	} else if _, ok := surface.Named(c.Surface.Function); !ok {
		return fmt.Errorf("unknown surface function %q", c.Surface.Function)
	}
	if t := c.Surface.Transform.Scale; t[0] == 0 || t[1] == 0 || t[2] == 0 {
		return fmt.Errorf("surface.transform.scale %v collapses the surface", t)
	}
	switch c.Output.Format {
	case FormatSTL, FormatSTLASCII, FormatJSON, FormatGPU:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	return nil
}
