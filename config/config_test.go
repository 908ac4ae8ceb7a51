package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surface3d/surface"
	vm "surface3d/vector_math"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Surface3D", cfg.Surface.Name)
	assert.Equal(t, 32, cfg.Surface.U)
	assert.Equal(t, 128, cfg.Surface.V)
	assert.Equal(t, [3]float64{}, cfg.Surface.Origin)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("SURFACE3D_U", "")
	t.Setenv("SURFACE3D_V", "")

	path := filepath.Join(t.TempDir(), "nested", "surface3d.yaml")
	cfg := DefaultConfig()
	cfg.Surface.U = 8
	cfg.Surface.Origin = [3]float64{1, 2, 3}
	cfg.Output.Format = FormatJSON
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("surface:\n  v: 16\n"), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, loaded.Surface.V)
	assert.Equal(t, 32, loaded.Surface.U)
	assert.Equal(t, "halfsphere", loaded.Surface.Function)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("surface: [\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SURFACE3D_U", "4")
	t.Setenv("SURFACE3D_V", "6")
	t.Setenv("SURFACE3D_LOG_LEVEL", "debug")
	t.Setenv("SURFACE3D_ADDR", "127.0.0.1:9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Surface.U)
	assert.Equal(t, 6, cfg.Surface.V)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	t.Setenv("SURFACE3D_U", "lots")
	_, err = Load("")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Surface.U = -1
	assert.ErrorIs(t, cfg.Validate(), surface.ErrInvalidResolution)

	cfg = DefaultConfig()
	cfg.Surface.U, cfg.Surface.V = 0, 0
	assert.NoError(t, cfg.Validate(), "zero resolution is a valid empty mesh")

	cfg = DefaultConfig()
	cfg.Surface.Function = "torus"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Surface.Function = FunctionRecord
	assert.Error(t, cfg.Validate())
	cfg.Surface.Record = "half_sphere.py"
	assert.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Output.Format = "obj"
	assert.Error(t, cfg.Validate())
	cfg.Output.Format = FormatGPU
	assert.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Surface.Transform.Scale = [3]float64{1, 0, 1}
	assert.Error(t, cfg.Validate())
}

func TestLoadTransform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	yml := "surface:\n  transform:\n    rotate: [0, 0, 90]\n    translate: [0, 0, 2]\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	tr := loaded.Surface.Transform
	assert.Equal(t, [3]float64{1, 1, 1}, tr.Scale, "unset scale keeps the default")
	assert.False(t, tr.IsIdentity())

	m := tr.Matrix()
	require.NotNil(t, m)
	p := vm.Apply(vm.Vec3{X: 1}, 1, m)
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)
	assert.InDelta(t, 2, p.Z, 1e-12)

	assert.Nil(t, DefaultConfig().Surface.Transform.Matrix())
}
